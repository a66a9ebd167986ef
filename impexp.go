package tuition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PaesslerAG/jsonpath"
)

// This file contains the backup format. A backup is the whole account
// book as one human-readable JSON document, the same shape as the local
// file, so a backup taken on any device restores on any other.

// ExportBackup writes the full account book to w.
func ExportBackup(w io.Writer, a *Accounts) error {
	return EncodeAccounts(w, a)
}

// ImportBackup reads a backup and returns it as a normalized account
// book. Before the lenient decode it verifies the document actually is a
// backup: the three collections must be present as arrays. Anything else
// (a statement export, a settings file, random JSON) is rejected rather
// than silently imported as an empty book.
func ImportBackup(r io.Reader) (*Accounts, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read backup: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse backup: %w", err)
	}
	for _, path := range []string{"$.students", "$.sessions", "$.payments"} {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			return nil, fmt.Errorf("not a backup: missing %s", path)
		}
		if _, ok := v.([]any); !ok {
			return nil, fmt.Errorf("not a backup: %s is not a list", path)
		}
	}

	return DecodeAccounts(bytes.NewReader(data))
}
