// Package eo3 validates EO3 dataset documents, their product definitions and
// their metadata types, and resolves named metadata fields to locations inside
// a document.
//
// The root package holds the shared vocabulary:
//
//   - a structured message model (Message, Messages, Messager) that every check
//     reports through instead of failing on the first problem
//   - Doc and Offset helpers to read and update nested documents by path
//   - aggregate errors raised once at the API boundary
//     (InvalidDatasetError, InvalidDocumentError)
//
// Design policy:
//   - Keep the root package a leaf: field descriptors live under fields/,
//     property normalisation under properties/, the staged pipeline under
//     validate/ and the dataset accessor under model/.
//   - Check functions return Messages and never an error for a data problem.
//     Errors are reserved for aggregate reporting and programming misuse.
//
// Typical usage:
//
//	doc, err := source.ReadDoc("ds.odc-metadata.yaml")
//	msgs := validate.ValidateDataset(ctx, doc, validate.Options{})
//	if err := eo3.HandleDatasetValidationMessages(logger, msgs); err != nil {
//		...
//	}
//
//	ds, err := model.New(doc)
//	v, err := ds.Field("time")
package eo3
