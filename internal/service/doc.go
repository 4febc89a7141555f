// Package service implements the business logic layer for the CampusConnect API.
//
// The service package owns every domain rule: membership capacity, the
// approval workflow, RSVP registration rules, check-in and feedback. Handlers
// call services; services call the stores through the repository interfaces
// in repository.go.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts the shared Config
//   - Mutations lock the owning aggregate, then run read-validate-write
//     inside retryWrite, which re-runs the whole cycle on a version conflict
//   - Reads retry connection faults only (retryRead)
//   - Authorization is decided by the authz gate before any state changes
//
// # Consistency
//
// Club and Event own their rosters; User carries back-references. A mutation
// that touches both sides saves them in one store transaction. Club deletion
// is the exception: the club and its events go in one transaction, then each
// referencing user is cleaned up separately and the reference repair job
// picks up anything left behind.
//
// # Error Handling
//
// Every rule violation is an *Error carrying a Kind and one of the sentinels
// in errors.go:
//
//	_, err := membership.Join(ctx, actor, clubID, nil)
//	if errors.Is(err, service.ErrClubFull) {
//	    var se *service.Error
//	    errors.As(err, &se) // se.Limit, se.Current
//	}
//
// # Example Usage
//
//	cfg := service.Config{
//	    Users:  store.Users(),
//	    Clubs:  store.Clubs(),
//	    Events: store.Events(),
//	    Locks:  service.NewLocks(),
//	}
//	clubs := service.NewClubService(cfg)
//	view, err := clubs.CreateClub(ctx, actor, &model.CreateClubRequest{Name: "Robotics Society"})
package service
