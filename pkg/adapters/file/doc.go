// Package file stores reference host documents as YAML or JSON files.
package file
