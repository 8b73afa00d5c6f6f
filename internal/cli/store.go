package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/store"
)

// StoreOptions holds the database flag shared by the history commands.
type StoreOptions struct {
	*RootOptions
	Database string
}

func (o *StoreOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database (default [store] path from config)")
}

// open opens the database named by --db, or the configured one.
func (o *StoreOptions) open() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.Config.Store.Path
	}
	o.Logger.Debug("opening database", "path", path)
	return store.Open(path, store.WithLogger(o.Logger))
}

func (o *StoreOptions) close(st *store.Store) {
	if err := st.Close(); err != nil {
		o.Logger.Error("error closing database", "error", err)
	}
}

// loadStored loads a document for saving. A script is parsed with ids
// derived from its document id, so saving an unchanged script again
// produces an identical document. id defaults to the file name for scripts
// and to the stored id for documents.
func (o *StoreOptions) loadStored(cmd *cobra.Command, path, id string) (*ir.Document, error) {
	if isDocumentFile(path) {
		doc, err := o.loadDocument(cmd, path, ir.DefaultIDs)
		if err != nil {
			return nil, err
		}
		if id != "" {
			doc.ID = id
		}
		return doc, nil
	}

	if id == "" {
		id = documentName(path)
	}
	doc, err := o.loadDocument(cmd, path, ir.NewSequence(id))
	if err != nil {
		return nil, err
	}
	if id != "" {
		doc.ID = id
	}
	return doc, nil
}
