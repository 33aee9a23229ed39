package state

import (
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

// ErrDialogBusy is returned when a dialog is requested while another is open.
var ErrDialogBusy = errors.New("another dialog is open")

// DialogKind identifies which dialog is open.
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogAdd
	DialogEdit
	DialogDelete
)

func (k DialogKind) String() string {
	switch k {
	case DialogAdd:
		return "add"
	case DialogEdit:
		return "edit"
	case DialogDelete:
		return "delete"
	default:
		return "none"
	}
}

// Dialog is the open dialog. Subject is nil for DialogNone and DialogAdd.
type Dialog struct {
	Kind    DialogKind
	Subject *models.Contact
}

// Dialogs allows at most one dialog to be open.
type Dialogs struct {
	mu      sync.Mutex
	current Dialog
}

// Current returns the open dialog, or a DialogNone dialog.
func (d *Dialogs) Current() Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// ShowAdd opens the add dialog.
func (d *Dialogs) ShowAdd() error {
	return d.open(Dialog{Kind: DialogAdd})
}

// ShowEdit opens the edit dialog for c.
func (d *Dialogs) ShowEdit(c models.Contact) error {
	return d.open(Dialog{Kind: DialogEdit, Subject: &c})
}

// ShowDelete opens the delete confirmation for c.
func (d *Dialogs) ShowDelete(c models.Contact) error {
	return d.open(Dialog{Kind: DialogDelete, Subject: &c})
}

// Dismiss closes the open dialog, if any.
func (d *Dialogs) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = Dialog{}
}

func (d *Dialogs) open(next Dialog) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current.Kind != DialogNone {
		return ErrDialogBusy
	}
	d.current = next
	return nil
}
