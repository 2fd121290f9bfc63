package taxonomy

import "strings"

// Category is a sensitive-content class the prefilter can report.
type Category string

const (
	CreditCard       Category = "credit_card"
	APIKey           Category = "api_key"
	AuthPattern      Category = "auth_pattern"
	SecureDocument   Category = "secure_document"
	BankStatement    Category = "bank_statement"
	APIDocumentation Category = "api_documentation"
	PasswordManager  Category = "password_manager"
	CryptoWallet     Category = "crypto_wallet"
	LoginScreen      Category = "login_screen"
	Receipt          Category = "receipt"
	BankingApp       Category = "banking_app"
)

// allCategories keeps declaration order for listings.
var allCategories = []Category{
	CreditCard,
	APIKey,
	AuthPattern,
	SecureDocument,
	BankStatement,
	APIDocumentation,
	PasswordManager,
	CryptoWallet,
	LoginScreen,
	Receipt,
	BankingApp,
}

// keyAliases maps alternative backend keys onto taxonomy identifiers.
var keyAliases = map[string]Category{
	"card_number":    CreditCard,
	"payment_card":   CreditCard,
	"api_credential": APIKey,
	"auth_ui":        AuthPattern,
	"secure_doc":     SecureDocument,
	"api_docs":       APIDocumentation,
	"login":          LoginScreen,
}

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// CategoryForKey translates a backend score key into a Category.
// Unknown keys return false and must be dropped by the caller.
func CategoryForKey(key string) (Category, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range allCategories {
		if string(c) == key {
			return c, true
		}
	}
	if c, ok := keyAliases[key]; ok {
		return c, true
	}
	return "", false
}

// EligibleCategories returns the categories a mode may report.
// ModeOff has none.
func EligibleCategories(m Mode) []Category {
	switch m {
	case ModeLight:
		return []Category{CreditCard}
	case ModeDeep:
		return AllCategories()
	default:
		return nil
	}
}

// Eligible reports whether c may be reported under mode m.
func (c Category) Eligible(m Mode) bool {
	for _, e := range EligibleCategories(m) {
		if e == c {
			return true
		}
	}
	return false
}

// DisplayName turns the snake_case identifier into Title Case words,
// e.g. "credit_card" -> "Credit Card".
func (c Category) DisplayName() string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func (c Category) String() string {
	return string(c)
}
