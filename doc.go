// Package r2gate provides a small HTTP gateway for CRUD access to an
// S3-compatible object store, gated by cookie sessions issued against a static
// table of users with bcrypt-hashed tokens.
//
// The package holds the two core pieces and the interfaces they depend on.
//
// # Key Components
//
//   - Authenticator: credential verification, session issuance, session lookup and bulk logout
//   - StorageService: list/upload/download/delete under a fixed Namespace
//   - UserStore: read-only credential table (see package userbackend)
//   - SessionStore: live sessions (see package sessionbackend and database)
//   - ObjectStore: remote object store (see packages s3store and filesystem)
//
// # Namespace
//
// Every filename is stored at "<namespace>/<filename>" and the namespace is
// stripped again from listed keys, so Strip(FullPath(x)) == x for every x.
// No further filename sanitization is performed.
//
// # Example Usage
//
//	auth, err := r2gate.NewAuthenticator(users, sessions, r2gate.AuthConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, identity, err := auth.Login(ctx, "alice", token)
//
//	storage, err := r2gate.NewStorageService(objects, r2gate.NewNamespace("content/md"))
//	files, err := storage.List(ctx, r2gate.ListQuery{Prefix: "drafts/", Limit: 50})
//
// See the http package for the REST API.
package r2gate
