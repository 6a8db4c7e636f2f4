// Package processing post-processes raw model output before it is returned to
// callers.
//
// # Normalization
//
// Models are asked to answer list-shaped field types (objectives, key risk
// indicators, training objectives, assessment questions) with a JSON array of
// strings. Normalize turns such an answer into a list when it parses and
// leaves it as raw text when it does not:
//
//	content := processing.Normalize(raw, fields.Objectives)
//	if content.IsList() {
//		for _, item := range content.Items {
//			fmt.Println(item)
//		}
//	}
//
// Normalize never fails. A model that wraps its answer in a ```json fence is
// tolerated; anything else that does not begin with '[' after trimming is
// passed through untouched.
//
// # Token Estimation
//
// EstimateTokens provides a character-based estimate for backends that do
// not report usage, so generation log entries always carry a usage figure.
package processing
