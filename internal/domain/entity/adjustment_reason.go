package entity

// AdjustmentReason motivo obligatorio de un ajuste manual (conjunto cerrado).
type AdjustmentReason string

const (
	ReasonDamaged       AdjustmentReason = "damaged"
	ReasonTheft         AdjustmentReason = "theft"
	ReasonCountingError AdjustmentReason = "counting_error"
	ReasonExpired       AdjustmentReason = "expired"
	ReasonReturned      AdjustmentReason = "returned"
	ReasonOther         AdjustmentReason = "other"
)

// Valid indica si el motivo pertenece al conjunto cerrado.
func (r AdjustmentReason) Valid() bool {
	switch r {
	case ReasonDamaged, ReasonTheft, ReasonCountingError, ReasonExpired, ReasonReturned, ReasonOther:
		return true
	}
	return false
}
