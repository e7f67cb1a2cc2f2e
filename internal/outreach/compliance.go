package outreach

import (
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

// freeMailDomains are consumer mailbox providers. Mail to them is treated as
// personal rather than business correspondence.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"yahoo.fr":       true,
	"hotmail.com":    true,
	"hotmail.fr":     true,
	"outlook.com":    true,
	"outlook.fr":     true,
	"live.com":       true,
	"live.fr":        true,
	"msn.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"gmx.com":        true,
	"gmx.de":         true,
	"gmx.fr":         true,
	"web.de":         true,
	"orange.fr":      true,
	"wanadoo.fr":     true,
	"free.fr":        true,
	"sfr.fr":         true,
	"laposte.net":    true,
	"proton.me":      true,
	"protonmail.com": true,
	"yandex.com":     true,
	"mail.ru":        true,
}

// Classify returns the compliance hint for a recipient address.
func Classify(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return model.CompliancePersonal
	}
	domain := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(address[at+1:], ">")))
	if freeMailDomains[domain] {
		return model.CompliancePersonal
	}
	return model.ComplianceSafe
}
