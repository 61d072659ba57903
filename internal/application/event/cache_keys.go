package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/greencity/event-service/internal/search"
)

const cacheKeySearchGeneration = "events:search:gen"

func cacheKeyEventDetails(id string) string {
	return fmt.Sprintf("event:%s", id)
}

// cacheKeySearch hashes the normalized request. gen changes whenever
// events or tags change, which orphans older entries until their TTL.
func cacheKeySearch(gen int64, cmd SearchCmd, orders []search.Order) string {
	criteria, _ := json.Marshal(cmd.Criteria)

	sort := make([]string, 0, len(orders))
	for _, o := range orders {
		sort = append(sort, o.String())
	}

	raw := fmt.Sprintf("q=%s|lang=%s|size=%d|sort=%s|criteria=%s",
		cmd.Query, cmd.Language, cmd.Size, strings.Join(sort, ";"), criteria)

	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("events:search:%d:%s", gen, hex.EncodeToString(hash[:]))
}
