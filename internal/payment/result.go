package payment

import (
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/shopspring/decimal"
)

type Outcome int

const (
	OutcomeCaptured Outcome = iota + 1
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCaptured:
		return "captured"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CaptureResult is the terminal state of one payment attempt.
type CaptureResult struct {
	Outcome     Outcome            `json:"outcome"`
	OrderID     string             `json:"orderId,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
	Currency    string             `json:"currency,omitempty"`
	Source      domain.OrderSource `json:"source,omitempty"`
	RedirectURL string             `json:"redirectUrl,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

func Captured(orderID string, amount decimal.Decimal, currency string) CaptureResult {
	return CaptureResult{Outcome: OutcomeCaptured, OrderID: orderID, Amount: amount, Currency: currency}
}

func Cancelled() CaptureResult {
	return CaptureResult{Outcome: OutcomeCancelled}
}

func Failed(reason string) CaptureResult {
	return CaptureResult{Outcome: OutcomeFailed, Reason: reason}
}

// Banner is the style the result is shown with. A cancellation is the
// buyer's own choice and is not presented as an error.
func (r CaptureResult) Banner() string {
	switch r.Outcome {
	case OutcomeCaptured:
		return "success"
	case OutcomeCancelled:
		return "warning"
	default:
		return "error"
	}
}

// Message is the text shown to the customer for this result.
func (r CaptureResult) Message() string {
	switch r.Outcome {
	case OutcomeCaptured:
		return "¡Pago completado! Redirigiendo..."
	case OutcomeCancelled:
		return "Cancelaste el pago. Puedes intentar nuevamente."
	default:
		return "Hubo un problema con el pago. Si usas AdBlock, intenta desactivarlo y vuelve a intentar."
	}
}
