package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ReferenceGenerator issues short, human-readable, unique booking references.
type ReferenceGenerator struct {
	node *snowflake.Node
}

func NewReferenceGenerator(nodeID int64) (*ReferenceGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	return &ReferenceGenerator{node: node}, nil
}

// Next returns references like "BK-1A2B3C4D5E6F".
func (g *ReferenceGenerator) Next() string {
	return "BK-" + strings.ToUpper(g.node.Generate().Base36())
}
