// Package http provides the HTTP API of the r2gate file gateway.
//
// The API authenticates browsers with a session cookie issued at login and
// proxies file operations to an object store under a fixed namespace.
//
// # Routes
//
//	POST   /api/login            {username, token} -> {name} + session cookie
//	POST   /api/logout           ends every session of the caller
//	GET    /api/whoami           {username, name}
//	GET    /api/files            ?prefix=&limit= -> {files, total}
//	POST   /api/files            multipart upload, name taken from the part
//	GET    /api/files/{filename} raw bytes with the stored content type
//	PUT    /api/files/{filename} multipart upload replacing filename
//	DELETE /api/files/{filename}
//
// Every route but login sits behind SessionMiddleware. A request without the
// session_id cookie is rejected with 401 and one whose session cannot be
// resolved with 403.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    Cookie:    http.CookieConfig{Production: true, Domain: "admin.example.org"},
//	    StaticDir: "static",
//	}
//	handler := http.NewHandler(&handlerCfg, authenticator, storageService)
//	http.ListenAndServe(":3000", handler.Router())
//
// Errors are written as {"error": "<message>"}.
package http
