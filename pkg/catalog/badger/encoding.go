package badger

import (
	"encoding/binary"
	"time"

	"github.com/marmos91/artifactguard/pkg/catalog"
)

// Key namespace:
//
//	st:<id>                              Stage (JSON)
//	sid:<pipeline/pc/stage/sc>           stage ID
//	idx:<completed-at nanos><id>         empty; completed stages with artifacts
//	last:<pipeline>\x00<stage>           ID of the newest completed run
//	prot:<pipeline>\x00<stage>           Protection (JSON)
//	run:<started-at nanos><id>           RunRecord (JSON)
const (
	prefixStage      = "st:"
	prefixIdentifier = "sid:"
	prefixIndex      = "idx:"
	prefixLatest     = "last:"
	prefixProtection = "prot:"
	prefixRun        = "run:"
)

func keyStage(id string) []byte {
	return []byte(prefixStage + id)
}

func keyIdentifier(s catalog.Stage) []byte {
	return []byte(prefixIdentifier + s.Identifier())
}

// keyIndex sorts by completion time; big-endian nanos keep byte order equal
// to time order.
func keyIndex(completedAt time.Time, id string) []byte {
	return timeKey(prefixIndex, completedAt, id)
}

func keyLatest(k catalog.StageKey) []byte {
	return []byte(prefixLatest + k.Pipeline + "\x00" + k.Stage)
}

func keyProtection(k catalog.StageKey) []byte {
	return []byte(prefixProtection + k.Pipeline + "\x00" + k.Stage)
}

func keyRun(startedAt time.Time, id string) []byte {
	return timeKey(prefixRun, startedAt, id)
}

func timeKey(prefix string, t time.Time, id string) []byte {
	key := make([]byte, 0, len(prefix)+8+len(id))
	key = append(key, prefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(t.UnixNano()))
	return append(key, id...)
}

// indexID extracts the stage ID from an index key.
func indexID(key []byte) string {
	return string(key[len(prefixIndex)+8:])
}
