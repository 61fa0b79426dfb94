package enums

import "fmt"

// EmailRecipientType distinguishes who a queued notification targets.
type EmailRecipientType string

const (
	EmailRecipientCustomer EmailRecipientType = "customer"
	EmailRecipientSwissVFG EmailRecipientType = "swiss_vfg"
)

// EmailType names the template a queued notification renders with.
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeOrderFulfillment  EmailType = "order_fulfillment"
	EmailTypePaymentFailure    EmailType = "payment_failure"
)

// EmailStatus tracks delivery progress of a queued notification.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

var validEmailTypes = []EmailType{
	EmailTypeOrderConfirmation,
	EmailTypeOrderFulfillment,
	EmailTypePaymentFailure,
}

// IsValid reports whether the value is a known EmailType.
func (e EmailType) IsValid() bool {
	for _, candidate := range validEmailTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmailType converts raw input into an EmailType.
func ParseEmailType(value string) (EmailType, error) {
	for _, candidate := range validEmailTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email type %q", value)
}
