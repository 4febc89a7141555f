// Package helpers provides test utilities for exercising the HTTP API.
//
// # JWT Helpers
//
// JWTHelper signs real tokens with an in-memory key. Hand its Service to the
// account service under test so the tokens validate:
//
//	tokens := helpers.NewJWTHelper(t)
//	accounts := service.NewAccountService(cfg, tokens.Service())
//
// # Requests and Assertions
//
//	rr := helpers.NewRequest(t, http.MethodPost, "/v1/clubs").
//	    WithAuth(tokens, admin).
//	    WithBody(body).
//	    Do(router)
//	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeDuplicateName)
package helpers
