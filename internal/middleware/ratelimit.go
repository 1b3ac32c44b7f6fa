package middleware

import (
	"fmt"
)

// ObjectCounter interface for counting objects (avoids import cycle with the
// board packages)
type ObjectCounter interface {
	Len() int
}

// Limits: configuration for rate limiting and payload bounds
type Limits struct {
	MaxRoomSize       int
	MaxObjects        int
	MaxMessageSize    int
	MaxRooms          int
	MaxObjectDepth    int
	MaxObjectElements int
	MessagesPerSecond float64
	BurstSize         int
}

// CanAddObject: checks if a board has space for more objects
func (l *Limits) CanAddObject(counter ObjectCounter) bool {
	return counter.Len() < l.MaxObjects
}

// ValidateMessageSize: checks if a message is within the size limit
func (l *Limits) ValidateMessageSize(msgSize int) bool {
	return msgSize <= l.MaxMessageSize
}

// ValidateObjectComplexity: validates object data complexity
// Checks nesting depth and unique key count (not array lengths)
func (l *Limits) ValidateObjectComplexity(data map[string]any) error {
	depth, keys := validateComplexity(data, 0)

	if depth > l.MaxObjectDepth {
		return fmt.Errorf("object nesting too deep: %d levels (max %d)", depth, l.MaxObjectDepth)
	}

	if keys > l.MaxObjectElements {
		return fmt.Errorf("object too complex: %d keys (max %d)", keys, l.MaxObjectElements)
	}

	return nil
}

// validateComplexity: recursively checks depth and counts unique keys
func validateComplexity(data any, currentDepth int) (int, int) {
	maxDepth := currentDepth
	keyCount := 0

	switch v := data.(type) {
	case map[string]any:
		keyCount = len(v)
		for _, val := range v {
			subDepth, subKeys := validateComplexity(val, currentDepth+1)
			if subDepth > maxDepth {
				maxDepth = subDepth
			}
			keyCount += subKeys
		}
	case []any:
		// Don't count array length
		for _, val := range v {
			subDepth, subKeys := validateComplexity(val, currentDepth+1)
			if subDepth > maxDepth {
				maxDepth = subDepth
			}
			keyCount += subKeys
		}
	}

	return maxDepth, keyCount
}
