package schema

import (
	"strconv"
	"strings"
)

// reservedWords are never used as table aliases.
var reservedWords = map[string]bool{
	"for": true, "from": true, "where": true, "select": true, "update": true,
	"delete": true, "insert": true, "join": true, "on": true, "as": true,
	"in": true, "or": true, "and": true, "not": true, "if": true,
	"order": true, "by": true, "group": true, "having": true, "union": true,
	"all": true, "exists": true, "case": true, "when": true, "then": true,
	"else": true, "end": true, "distinct": true, "limit": true, "offset": true,
	"into": true, "values": true, "set": true, "create": true, "drop": true,
	"alter": true, "table": true, "index": true, "view": true, "trigger": true,
	"procedure": true, "function": true, "schema": true, "database": true,
	"constraint": true, "primary": true, "foreign": true, "key": true,
	"unique": true, "null": true, "default": true, "check": true,
	"references": true,
}

// IsReservedWord reports whether word is on the alias blocklist.
func IsReservedWord(word string) bool {
	return reservedWords[strings.ToLower(word)]
}

// GenerateAlias derives a short table alias for an entity key that is
// neither reserved nor present in used. It does not modify used.
//
//	category                 -> cat
//	category, used {cat}     -> cate
//	category, used {cat,cate} -> cate1
//	format                   -> form  (prefix "for" is reserved)
//	on                       -> o_t
func GenerateAlias(key string, used map[string]struct{}) string {
	r := []rune(key)
	if len(r) == 0 {
		return nextFree("t", used)
	}

	alias := key
	if len(r) > 3 {
		alias = string(r[:3])
	}

	if IsReservedWord(alias) && len(r) > 3 {
		alias = string(r[:4])
	}
	if IsReservedWord(alias) {
		alias = string(r[0]) + "_t"
	}

	if _, taken := used[alias]; taken && len(r) > 3 && len([]rune(alias)) < 4 {
		alias = string(r[:4])
	}

	if _, taken := used[alias]; taken {
		return nextFree(alias, used)
	}
	return alias
}

// nextFree appends the smallest positive counter that makes base unused.
func nextFree(base string, used map[string]struct{}) string {
	for n := 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
