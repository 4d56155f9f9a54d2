// Package confirmation implements the delivery confirmation protocol: code
// generation, code matching, and the DeliveryConfirmation record.
//
// Per order the protocol moves NONE → CODE_ISSUED → VERIFIED → CONFIRMED,
// independently of the order lifecycle. NONE and CODE_ISSUED are represented
// by the absence or presence of a code on the order; VERIFIED is a stateless
// precondition check; CONFIRMED is the existence of a DeliveryConfirmation
// record together with the order's Delivered status.
package confirmation
