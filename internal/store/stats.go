package store

import "context"

// GetUserStatistics derives the per-user summary entirely from
// ListUserProjects. TotalTasks sums the advisory taskCount of each project,
// so any counter drift compounds here.
func (s *Store) GetUserStatistics(ctx context.Context, userID string) (*Statistics, error) {
	projects, err := s.ListUserProjects(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalProjects: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case "active":
			stats.ActiveProjects++
		case "completed":
			stats.CompletedProjects++
		}
		stats.TotalTasks += p.TaskCount
		if p.UserRole == RoleOwner {
			stats.OwnedProjects++
		}
	}
	return stats, nil
}
