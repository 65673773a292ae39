// Package merge copies a staged directory tree into a project directory.
// Regular files are copied according to a Policy, directories are created as
// needed, and symbolic links or special files are never followed or copied.
package merge
