package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

var errNoSuchRow = errors.New("no such row")

func (a *App) render(list []models.Contact) {
	if len(list) == 0 {
		a.println("(no contacts)")
		return
	}
	for i, c := range list {
		a.println(fmt.Sprintf("%3d. %s", i+1, c.FullName()))
	}
}

func (a *App) List(context.Context) error {
	a.render(a.contacts.Contacts().Snapshot())
	return nil
}

func (a *App) Filter(ctx context.Context, term string) error {
	if err := a.contacts.SetFilter(ctx, term); err != nil {
		a.println("Error:", err)
		return err
	}
	a.render(a.contacts.Contacts().Snapshot())
	return nil
}

func (a *App) row(n int) (models.Contact, error) {
	list := a.contacts.Contacts().Snapshot()
	if n < 1 || n > len(list) {
		a.println(fmt.Sprintf("No contact #%d; type 'list' to see row numbers", n))
		return models.Contact{}, errNoSuchRow
	}
	return list[n-1], nil
}

// Add keeps the dialog open until the contact is saved or the user enters
// an empty name.
func (a *App) Add(ctx context.Context) error {
	dialogs := a.contacts.Dialogs()
	if err := dialogs.ShowAdd(); err != nil {
		a.println("Error:", err)
		return err
	}
	defer dialogs.Dismiss()

	for {
		name, err := GetSimpleText(a.reader, "Name (empty to cancel)", a)
		if err != nil {
			return err
		}
		if name == "" {
			a.println("Canceled")
			return nil
		}
		surname, err := GetSimpleText(a.reader, "Surname", a)
		if err != nil {
			return err
		}

		msg, err := a.contacts.Add(ctx, name, surname)
		if err != nil {
			a.println("Error:", err)
			continue
		}
		a.println(msg)
		a.render(a.contacts.Contacts().Snapshot())
		return nil
	}
}

func (a *App) Edit(ctx context.Context, n int) error {
	c, err := a.row(n)
	if err != nil {
		return err
	}
	dialogs := a.contacts.Dialogs()
	if err := dialogs.ShowEdit(c); err != nil {
		a.println("Error:", err)
		return err
	}
	defer dialogs.Dismiss()

	name, surname := c.Name, c.Surname
	for {
		if name, err = a.textWithDefault("Name", name); err != nil {
			return err
		}
		if surname, err = a.textWithDefault("Surname", surname); err != nil {
			return err
		}

		ok, err := Confirm(a.reader, fmt.Sprintf("Save %s %s?", name, surname), a)
		if err != nil {
			return err
		}
		if !ok {
			a.println("Canceled")
			return nil
		}

		msg, err := a.contacts.Update(ctx, c, name, surname)
		if err != nil {
			a.println("Error:", err)
			continue
		}
		a.println(msg)
		a.render(a.contacts.Contacts().Snapshot())
		return nil
	}
}

func (a *App) textWithDefault(label, current string) (string, error) {
	v, err := GetSimpleText(a.reader, fmt.Sprintf("%s [%s]", label, current), a)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

func (a *App) Delete(ctx context.Context, n int) error {
	c, err := a.row(n)
	if err != nil {
		return err
	}
	dialogs := a.contacts.Dialogs()
	if err := dialogs.ShowDelete(c); err != nil {
		a.println("Error:", err)
		return err
	}
	defer dialogs.Dismiss()

	for {
		ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s?", c.FullName()), a)
		if err != nil {
			return err
		}
		if !ok {
			a.println("Canceled")
			return nil
		}

		msg, err := a.contacts.Delete(ctx, c)
		if err != nil {
			a.println("Error:", err)
			continue
		}
		a.println(msg)
		a.render(a.contacts.Contacts().Snapshot())
		return nil
	}
}
