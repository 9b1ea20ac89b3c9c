package middlewares

const (
	CtxRequestID = "request_id"
	CtxJobID     = "job_id"
	CtxPrincipal = "auth.principal"
	CtxIdentity  = "auth.identity"
)
