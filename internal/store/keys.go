package store

import "fmt"

// Key prefixes and sentinel sort keys for the single-table layout. Every
// entity kind lives under a fixed prefix so keys never collide across kinds.
const (
	userPrefix    = "USER#"
	projectPrefix = "PROJECT#"
	memberPrefix  = "MEMBER#"
	taskPrefix    = "TASK#"

	profileSK  = "PROFILE"
	metadataSK = "METADATA"
)

// ItemKey is a composite (partition key, sort key) pair.
type ItemKey struct {
	PK string
	SK string
}

// UserProfileKey returns the key of a user profile item.
func UserProfileKey(userID string) (ItemKey, error) {
	if userID == "" {
		return ItemKey{}, fmt.Errorf("user id: %w", ErrEmptyIdentifier)
	}
	return ItemKey{PK: userPrefix + userID, SK: profileSK}, nil
}

// ProjectMetadataKey returns the key of a project metadata item.
func ProjectMetadataKey(projectID string) (ItemKey, error) {
	if projectID == "" {
		return ItemKey{}, fmt.Errorf("project id: %w", ErrEmptyIdentifier)
	}
	return ItemKey{PK: projectPrefix + projectID, SK: metadataSK}, nil
}

// ProjectMemberKey returns the key of a membership item stored in the
// project partition.
func ProjectMemberKey(projectID, userID string) (ItemKey, error) {
	if projectID == "" {
		return ItemKey{}, fmt.Errorf("project id: %w", ErrEmptyIdentifier)
	}
	if userID == "" {
		return ItemKey{}, fmt.Errorf("user id: %w", ErrEmptyIdentifier)
	}
	return ItemKey{PK: projectPrefix + projectID, SK: memberPrefix + userID}, nil
}

// UserProjectKey returns the key of the user-to-project relation item stored
// in the user partition. It mirrors the project-side membership item.
func UserProjectKey(userID, projectID string) (ItemKey, error) {
	if userID == "" {
		return ItemKey{}, fmt.Errorf("user id: %w", ErrEmptyIdentifier)
	}
	if projectID == "" {
		return ItemKey{}, fmt.Errorf("project id: %w", ErrEmptyIdentifier)
	}
	return ItemKey{PK: userPrefix + userID, SK: projectPrefix + projectID}, nil
}

// TaskKey returns the key of a task item stored in the project partition.
func TaskKey(projectID, taskID string) (ItemKey, error) {
	if projectID == "" {
		return ItemKey{}, fmt.Errorf("project id: %w", ErrEmptyIdentifier)
	}
	if taskID == "" {
		return ItemKey{}, fmt.Errorf("task id: %w", ErrEmptyIdentifier)
	}
	return ItemKey{PK: projectPrefix + projectID, SK: taskPrefix + taskID}, nil
}
