package app

import (
	"errors"

	"cadgen/internal/model"
	"cadgen/internal/render"
)

var (
	ErrEmptyDescription = errors.New("please provide a description of the model")
	ErrNoUploads        = errors.New("no files were uploaded")
	ErrNotGenerated     = errors.New("no model has been generated on this page")

	ErrUnknownPage   = model.ErrUnknownPage
	ErrUnknownFormat = model.ErrUnknownFormat
	ErrRenderFailed  = render.ErrRenderFailed
)

// StoragePaths is the storage collaborator the services write through.
type StoragePaths interface {
	EnsureUploadDir() error
	EnsureOutputDir() error
	UploadPath(filename string) string
	OutputPath(name string) string
	ResolveOutput(rel string) (string, error)
}
