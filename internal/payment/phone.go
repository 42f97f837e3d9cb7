package payment

import "strings"

// NormalizePhone rewrites a Kenyan mobile number into the 254XXXXXXXXX form
// the gateway expects. Input that matches none of the known shapes is
// returned unchanged and left for the gateway to reject.
func NormalizePhone(phone string) string {
	switch {
	case len(phone) == 12 && strings.HasPrefix(phone, "254") && allDigits(phone):
		return phone
	case len(phone) == 10 && phone[0] == '0' && allDigits(phone):
		return "254" + phone[1:]
	case len(phone) == 9 && (phone[0] == '7' || phone[0] == '1') && allDigits(phone):
		return "254" + phone
	case len(phone) == 13 && strings.HasPrefix(phone, "+254") && allDigits(phone[1:]):
		return phone[1:]
	}
	return phone
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
