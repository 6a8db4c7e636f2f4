// Package secrets resolves ${secret:name} references found in credential
// settings such as provider API keys, the Redis password, the Postgres DSN
// and the Git access token.
//
// Sources are consulted in order. The usual chain is a directory of secret
// files (one file per secret, Kubernetes style) followed by the environment:
//
//	files, _ := secrets.NewFileSource("/var/run/secrets/scribe")
//	r := secrets.NewResolver([]secrets.Source{files, secrets.NewEnvSource("SCRIBE_SECRET_")}, 5*time.Minute)
//	key, err := r.Expand(ctx, "${secret:openai-api-key}")
//
// Secret values never appear in logs; names are redacted as well.
package secrets
