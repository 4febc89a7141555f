// Package jobs runs background work independently of HTTP request handling.
//
// ReferenceRepair periodically walks every user and removes back-references
// to clubs and events that no longer exist or no longer list the user. Club
// deletion removes the club first and scrubs users afterwards, so a sweep is
// what finishes a cascade that failed part way.
//
//	job := jobs.NewReferenceRepair(service.NewRepairService(cfg, 200), time.Hour)
//	job.Start()
//	defer job.Stop()
//
// Jobs log failures and keep their schedule; they never stop the process.
package jobs
