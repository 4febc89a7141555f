// Package jwt signs and validates the API's RS256 access tokens.
//
// Tokens are produced with the private key and checked with the public key,
// so a deployment that only validates can load the public key alone:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "campusconnect",
//	    ExpirationMins: 60,
//	})
//
//	token, err := svc.IssueAccessToken(user.ID, user.Email, string(user.Role))
//
//	claims, err := svc.Validate(token)
//	if err != nil {
//	    // ErrTokenExpired, ErrInvalidSignature, ErrInvalidToken ...
//	}
//	userID := claims.UserID()
//
// The role claim is informational. Authorization always reloads the user,
// so a role change or deactivation takes effect before the token expires.
package jwt
