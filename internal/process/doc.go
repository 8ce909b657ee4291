// Package process terminates a launched browser together with its children.
package process
