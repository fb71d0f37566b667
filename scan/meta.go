package scan

import (
	"fmt"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/aarsakian/CryptoTriage/model"
)

var flagNames = []struct {
	flag  uint32
	label string
}{
	{model.FlagAllocated, "alloc"},
	{model.FlagUnallocated, "unalloc"},
	{model.FlagCompressed, "compressed"},
	{model.FlagOrphan, "orphan"},
	{model.FlagApp, "app"},
}

// formatOwner renders "name (uid=N),name (gid=M)" falling back to the bare
// ids when the account database has no entry. Negative ids mean unknown.
func formatOwner(uid, gid int) string {
	if uid < 0 && gid < 0 {
		return ""
	}
	var username, groupname string
	if runtime.GOOS != "windows" {
		if uid >= 0 {
			if account, err := user.LookupId(strconv.Itoa(uid)); err == nil {
				username = account.Username
			}
		}
		if gid >= 0 {
			if group, err := user.LookupGroupId(strconv.Itoa(gid)); err == nil {
				groupname = group.Name
			}
		}
	}
	var parts []string
	if uid >= 0 {
		if username != "" {
			parts = append(parts, fmt.Sprintf("%s (uid=%d)", username, uid))
		} else {
			parts = append(parts, fmt.Sprintf("uid=%d", uid))
		}
	}
	if gid >= 0 {
		if groupname != "" {
			parts = append(parts, fmt.Sprintf("%s (gid=%d)", groupname, gid))
		} else {
			parts = append(parts, fmt.Sprintf("gid=%d", gid))
		}
	}
	return strings.Join(parts, ",")
}

func timeFromUnix(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0).UTC()
}

func extractAttributes(entry model.DirEntry) []string {
	var attributes []string
	if entry.Mode != 0 {
		attributes = append(attributes, "mode:"+entry.Mode.String())
	}
	for _, flagName := range flagNames {
		if entry.Flags&flagName.flag != 0 {
			attributes = append(attributes, flagName.label)
		}
	}
	return dedupePreserveOrder(attributes)
}

func dedupePreserveOrder(values []string) []string {
	seen := make(map[string]bool, len(values))
	var result []string
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		result = append(result, value)
	}
	return result
}
