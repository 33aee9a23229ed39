package cli

import (
	"context"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
)

func (a *App) credentials() (string, string, error) {
	email, err := GetSimpleText(a.reader, "Email", a)
	if err != nil {
		return "", "", err
	}
	pw, err := GetPassword(a)
	if err != nil {
		return "", "", err
	}
	password := string(pw)
	common.WipeByteArray(pw)
	return email, password, nil
}

func (a *App) SignUp(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		a.println("Error:", err)
		return err
	}
	return a.signedIn(ctx)(a.auth.SignUp(ctx, email, password))
}

func (a *App) SignIn(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		a.println("Error:", err)
		return err
	}
	return a.signedIn(ctx)(a.auth.SignIn(ctx, email, password))
}

func (a *App) SignInFederated(ctx context.Context) error {
	token, err := GetSimpleText(a.reader, "Paste the identity token issued by your provider", a)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	return a.signedIn(ctx)(a.auth.SignInFederated(ctx, token))
}

func (a *App) SignInAnonymously(ctx context.Context) error {
	return a.signedIn(ctx)(a.auth.SignInAnonymously(ctx))
}

// signedIn reports the sign-in outcome and loads the contact list on success.
func (a *App) signedIn(ctx context.Context) func(string, error) error {
	return func(msg string, err error) error {
		if err != nil {
			a.println("Error:", err)
			return err
		}
		a.println(msg)

		if err := a.startContacts(ctx); err != nil {
			a.println("Error:", err)
			return err
		}
		a.render(a.contacts.Contacts().Snapshot())
		return nil
	}
}

func (a *App) SignOut(ctx context.Context) error {
	a.stopContacts()
	msg, err := a.auth.SignOut(ctx)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	a.println(msg)
	return nil
}
