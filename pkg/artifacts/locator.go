package artifacts

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// Locator addresses the artifacts of one stage run.
type Locator struct {
	Pipeline        string
	PipelineCounter int
	Stage           string
	StageCounter    int
}

// LocatorFor returns the locator of a catalog stage.
func LocatorFor(s catalog.Stage) Locator {
	return Locator{
		Pipeline:        s.Pipeline,
		PipelineCounter: s.PipelineCounter,
		Stage:           s.Name,
		StageCounter:    s.Counter,
	}
}

// Path is the slash-separated location relative to the store root:
// pipelines/<pipeline>/<counter>/<stage>/<counter>.
func (l Locator) Path() string {
	return path.Join("pipelines", l.Pipeline, strconv.Itoa(l.PipelineCounter),
		l.Stage, strconv.Itoa(l.StageCounter))
}

func (l Locator) String() string { return l.Path() }

// ErrInvalidLocator is returned for locators whose path would leave the
// stage directory layout.
var ErrInvalidLocator = errors.New("invalid artifact locator")

// Validate checks that Path keeps the five-segment stage layout, so a
// deletion can never reach above a single stage run.
func (l Locator) Validate() error {
	parts := strings.Split(l.Path(), "/")
	if len(parts) != 5 || parts[1] != l.Pipeline || parts[3] != l.Stage ||
		l.PipelineCounter < 1 || l.StageCounter < 1 {
		return fmt.Errorf("%w: %q/%d/%q/%d", ErrInvalidLocator,
			l.Pipeline, l.PipelineCounter, l.Stage, l.StageCounter)
	}
	return nil
}
