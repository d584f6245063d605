package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/alexanderramin/cronograma/internal/schedule"
)

// describeOffending appends the WBS codes of the nodes an error names, so a
// rejected edit points at codes instead of IDs.
func describeOffending(err error, tree *schedule.Tree) error {
	ids := domain.OffendingIDs(err)
	if len(ids) == 0 || tree == nil {
		return err
	}
	codes := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := tree.Node(id); ok {
			codes = append(codes, n.WbsCode)
		}
	}
	if len(codes) == 0 {
		return err
	}
	return fmt.Errorf("%w (nodes %s)", err, strings.Join(codes, ", "))
}
