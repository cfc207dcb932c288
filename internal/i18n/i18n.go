// Package i18n holds the user-visible message catalogue.
//
// Messages live in translations/<lang>.json and are embedded into the binary.
// One locale is chosen per process (MESSAGES_LOCALE); lookups fall back to
// English and finally to "[missing: key]".
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed translations/*.json
var translationsFS embed.FS

type Language string

const (
	FR Language = "fr"
	EN Language = "en"
)

func (l Language) String() string {
	return string(l)
}

func ParseLanguage(lang string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "fr":
		return FR, nil
	case "en":
		return EN, nil
	default:
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
}

// Message keys. Kept as constants so a typo is a compile error.
const (
	KeyAuthMissing        = "auth.missing"
	KeyAuthInvalid        = "auth.invalid"
	KeyAdminMissing       = "admin.auth_missing"
	KeyAdminInvalid       = "admin.auth_invalid"
	KeyInvalidCredentials = "auth.invalid_credentials"
	KeyAccountBanned      = "auth.account_banned"
	KeyDuplicateEmail     = "user.duplicate_email"
	KeyUserNotFound       = "user.not_found"
	KeyProfileRequired    = "user.profile_required"
	KeyUserCreated        = "user.created"
	KeyLoginSuccess       = "auth.login_success"
	KeyLogoutSuccess      = "auth.logout_success"
	KeyProfileUpdated     = "user.profile_updated"
	KeyAccountDeleted     = "user.account_deleted"
	KeyTokenValid         = "auth.token_valid"
	KeyTokenMissing       = "auth.token_missing"
	KeyTokenInvalid       = "auth.token_invalid"
	KeyEventNotFound      = "event.not_found"
	KeyEventInPast        = "event.in_past"
	KeyCancelInPast       = "event.cancel_in_past"
	KeyAlreadyRegistered  = "event.already_registered"
	KeyRegistered         = "event.registered"
	KeyCancelled          = "event.cancelled"
	KeyEventDeleted       = "event.deleted"
	KeyRetry              = "store.retry"
	KeyServerError        = "server.error"
	KeyInvalidBody        = "request.invalid_body"
	KeyAdminExists        = "admin.exists"
	KeyAdminCreated       = "admin.created"
	KeyAdminNotFound      = "admin.not_found"
	KeyAdminLogout        = "admin.logout"
	KeyUserBanned         = "admin.user_banned"
	KeyUserUnbanned       = "admin.user_unbanned"
	KeyPasswordTooLong    = "auth.password_too_long"

	KeyFieldRequired = "validation.required"
	KeyFieldEmail    = "validation.email"
	KeyFieldMin      = "validation.min"
	KeyFieldInvalid  = "validation.invalid"
)

type Translations map[string]string

// Catalog resolves message keys for one configured language.
type Catalog struct {
	translations map[Language]Translations
	lang         Language
}

// New loads the embedded catalogues and selects lang.
func New(lang Language) (*Catalog, error) {
	c := &Catalog{
		translations: make(map[Language]Translations),
		lang:         lang,
	}

	err := fs.WalkDir(translationsFS, "translations", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		langName := strings.TrimSuffix(path.Base(p), ".json")
		parsed, err := ParseLanguage(langName)
		if err != nil {
			return fmt.Errorf("i18n: %s: %w", p, err)
		}

		raw, err := translationsFS.ReadFile(p)
		if err != nil {
			return err
		}
		var t Translations
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("i18n: decoding %s: %w", p, err)
		}
		c.translations[parsed] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, ok := c.translations[lang]; !ok {
		return nil, fmt.Errorf("i18n: no catalogue for %s", lang)
	}
	return c, nil
}

// MustNew is New for callers (tests, main) that cannot continue without a catalogue.
func MustNew(lang Language) *Catalog {
	c, err := New(lang)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Language() Language {
	return c.lang
}

// T returns the message for key in the configured language.
func (c *Catalog) T(key string) string {
	if t, ok := c.translations[c.lang]; ok {
		if msg, ok := t[key]; ok {
			return msg
		}
	}
	if c.lang != EN {
		if t, ok := c.translations[EN]; ok {
			if msg, ok := t[key]; ok {
				return msg
			}
		}
	}
	return fmt.Sprintf("[missing: %s]", key)
}

// Tf is T followed by fmt.Sprintf with args.
func (c *Catalog) Tf(key string, args ...any) string {
	return fmt.Sprintf(c.T(key), args...)
}
