package workspace

import "errors"

// Controller errors. Handlers map them to HTTP status codes.
var (
	ErrNotFound         = errors.New("node not found")
	ErrNotAFile         = errors.New("node is not a file")
	ErrNotAFolder       = errors.New("node is not a folder")
	ErrInvalidMove      = errors.New("cannot move a node into its own subtree")
	ErrInvalidSelection = errors.New("exactly one node must be selected")
	ErrNoFileSelected   = errors.New("no file is selected")
	ErrShapeMismatch    = errors.New("command needs exactly one selected cell range inside the grid")
	ErrUnknownCommand   = errors.New("unknown menu command")
	ErrEmptyName        = errors.New("name must not be empty")
	ErrContentType      = errors.New("unsupported content type")
	ErrTooLarge         = errors.New("document exceeds size limit")
	ErrFetch            = errors.New("fetch failed")
)
