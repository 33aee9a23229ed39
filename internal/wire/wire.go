// Package wire defines the gRPC surface shared by the server and the remote
// client: service and method names plus the structpb encodings of every
// message exchanged.
package wire

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gophcontacts.v1.ContactStore"

const (
	MethodCreate          = "Create"
	MethodUpdate          = "Update"
	MethodRemove          = "Remove"
	MethodQueryAll        = "QueryAll"
	MethodQueryByPrefix   = "QueryByPrefix"
	MethodWatch           = "Watch"
	MethodSignUp          = "SignUp"
	MethodSignIn          = "SignIn"
	MethodSignInFederated = "SignInFederated"
	MethodSignInAnonymous = "SignInAnonymous"
	MethodPing            = "Ping"
)

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Empty is the message for requests and replies without fields.
func Empty() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}
}

func EncodeContact(c models.Contact) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"id":      structpb.NewStringValue(c.ID),
		"name":    structpb.NewStringValue(c.Name),
		"surname": structpb.NewStringValue(c.Surname),
	}
	if !c.CreatedAt.IsZero() {
		fields["created_at"] = structpb.NewStringValue(c.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	return &structpb.Struct{Fields: fields}
}

func DecodeContact(s *structpb.Struct) (models.Contact, error) {
	if s == nil {
		return models.Contact{}, fmt.Errorf("missing contact")
	}
	c := models.Contact{
		ID:      str(s, "id"),
		Name:    str(s, "name"),
		Surname: str(s, "surname"),
	}
	if raw := str(s, "created_at"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.Contact{}, fmt.Errorf("bad created_at %q: %w", raw, err)
		}
		c.CreatedAt = t
	}
	return c, nil
}

func EncodeContacts(list []models.Contact) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(list))
	for _, c := range list {
		values = append(values, structpb.NewStructValue(EncodeContact(c)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"contacts": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func DecodeContacts(s *structpb.Struct) ([]models.Contact, error) {
	out := make([]models.Contact, 0)
	if s == nil {
		return out, nil
	}
	for i, v := range s.GetFields()["contacts"].GetListValue().GetValues() {
		c, err := DecodeContact(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("contact %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func EncodeUpdate(original, replacement models.Contact) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"original":    structpb.NewStructValue(EncodeContact(original)),
		"replacement": structpb.NewStructValue(EncodeContact(replacement)),
	}}
}

func DecodeUpdate(s *structpb.Struct) (original, replacement models.Contact, err error) {
	if original, err = DecodeContact(s.GetFields()["original"].GetStructValue()); err != nil {
		return
	}
	replacement, err = DecodeContact(s.GetFields()["replacement"].GetStructValue())
	return
}

func EncodeTerm(term string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"term": structpb.NewStringValue(term)}}
}

func DecodeTerm(s *structpb.Struct) string {
	return str(s, "term")
}

func EncodeCredentials(email, password string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"email":    structpb.NewStringValue(email),
		"password": structpb.NewStringValue(password),
	}}
}

func DecodeCredentials(s *structpb.Struct) (email, password string) {
	return str(s, "email"), str(s, "password")
}

func EncodeIDToken(token string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"id_token": structpb.NewStringValue(token)}}
}

func DecodeIDToken(s *structpb.Struct) string {
	return str(s, "id_token")
}

func EncodeSession(sess *models.Session) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"user_id":        structpb.NewStringValue(sess.UserID),
		"email":          structpb.NewStringValue(sess.Email),
		"anonymous":      structpb.NewBoolValue(sess.Anonymous),
		"email_verified": structpb.NewBoolValue(sess.EmailVerified),
		"access_token":   structpb.NewStringValue(sess.AccessToken),
	}}
}

func DecodeSession(s *structpb.Struct) (*models.Session, error) {
	sess := &models.Session{
		UserID:        str(s, "user_id"),
		Email:         str(s, "email"),
		Anonymous:     s.GetFields()["anonymous"].GetBoolValue(),
		EmailVerified: s.GetFields()["email_verified"].GetBoolValue(),
		AccessToken:   str(s, "access_token"),
	}
	if sess.UserID == "" || sess.AccessToken == "" {
		return nil, fmt.Errorf("incomplete session")
	}
	return sess, nil
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
