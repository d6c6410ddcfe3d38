// Package util holds small helpers shared across vidscribe packages.
package util
