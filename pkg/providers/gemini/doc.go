// Package gemini implements the Google Gemini provider adapter.
//
// Requests go to POST {base}/v1beta/models/{model}:generateContent with the
// credential passed as the key query parameter and a contents /
// generationConfig body. The answer is the concatenated text parts of the
// first candidate; usage comes from usageMetadata.totalTokenCount.
package gemini
