package state

import (
	"testing"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialogs_SingleOpenDialog(t *testing.T) {
	var d Dialogs
	assert.Equal(t, DialogNone, d.Current().Kind)

	require.NoError(t, d.ShowAdd())
	assert.Equal(t, DialogAdd, d.Current().Kind)
	assert.Nil(t, d.Current().Subject)

	c := models.Contact{ID: "1", Name: "Ann", Surname: "Lee"}
	assert.ErrorIs(t, d.ShowEdit(c), ErrDialogBusy)
	assert.ErrorIs(t, d.ShowDelete(c), ErrDialogBusy)
	assert.ErrorIs(t, d.ShowAdd(), ErrDialogBusy)

	d.Dismiss()
	require.NoError(t, d.ShowEdit(c))
	cur := d.Current()
	assert.Equal(t, DialogEdit, cur.Kind)
	require.NotNil(t, cur.Subject)
	assert.Equal(t, c, *cur.Subject)

	d.Dismiss()
	require.NoError(t, d.ShowDelete(c))
	assert.Equal(t, DialogDelete, d.Current().Kind)

	d.Dismiss()
	d.Dismiss()
	assert.Equal(t, DialogNone, d.Current().Kind)
}

func TestDialogKind_String(t *testing.T) {
	assert.Equal(t, "none", DialogNone.String())
	assert.Equal(t, "add", DialogAdd.String())
	assert.Equal(t, "edit", DialogEdit.String())
	assert.Equal(t, "delete", DialogDelete.String())
}
