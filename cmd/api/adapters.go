package main

import (
	"context"

	"sqipit/internal/directory"
	"sqipit/internal/queue"
)

// directoryReader narrows the directory service to the read interface
// the queue service consumes.
type directoryReader struct {
	dir *directory.DirectoryService
}

func (a directoryReader) Location(ctx context.Context, locationID string) (queue.LocationInfo, error) {
	loc, err := a.dir.GetLocation(ctx, locationID)
	if err != nil {
		return queue.LocationInfo{}, err
	}
	return queue.LocationInfo{
		LocationID:     loc.LocationID,
		OrganizationID: loc.OrganizationID,
		Name:           loc.Name,
	}, nil
}

func (a directoryReader) Service(ctx context.Context, serviceID string) (queue.ServiceInfo, error) {
	svc, err := a.dir.GetService(ctx, serviceID)
	if err != nil {
		return queue.ServiceInfo{}, err
	}
	return queue.ServiceInfo{
		ServiceID:       svc.ServiceID,
		Name:            svc.Name,
		DurationMinutes: svc.DurationMinutes,
	}, nil
}
