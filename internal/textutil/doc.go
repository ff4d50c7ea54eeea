// Package textutil sanitizes names for safe use as filesystem path segments.
package textutil
