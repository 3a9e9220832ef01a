package syslog

import "fmt"

// Name <-> code table, filled once at package init and read-only afterwards
type codeTable struct {
	kind   string
	byName map[string]uint16
	byCode map[uint16]string
}

func newCodeTable(kind string, names []string, codes []uint16) (table codeTable) {
	table = codeTable{
		kind:   kind,
		byName: make(map[string]uint16, len(names)),
		byCode: make(map[uint16]string, len(names)),
	}
	for index, name := range names {
		table.byName[name] = codes[index]
		table.byCode[codes[index]] = name
	}
	return
}

func (table codeTable) code(name string) (code uint16, err error) {
	code, exists := table.byName[name]
	if !exists {
		err = fmt.Errorf("unknown %s name: %s", table.kind, name)
	}
	return
}

func (table codeTable) name(code uint16) (name string, err error) {
	name, exists := table.byCode[code]
	if !exists {
		err = fmt.Errorf("unknown %s code: %d", table.kind, code)
	}
	return
}

// Codes 12-15 (ntp, security, console, solaris-cron) are not configurable
var facilities = newCodeTable("facility",
	[]string{"kern", "user", "mail", "daemon", "auth", "syslog", "lpr", "news", "uucp", "cron", "authpriv", "ftp",
		"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7"},
	[]uint16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 16, 17, 18, 19, 20, 21, 22, 23},
)

// Wire keywords (what syslog daemons print), distinct from the configuration level names
var keywords = newCodeTable("severity",
	[]string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"},
	[]uint16{0, 1, 2, 3, 4, 5, 6, 7},
)

func FacilityToCode(facility string) (code uint16, err error) {
	return facilities.code(facility)
}

func CodeToFacility(code uint16) (facility string, err error) {
	return facilities.name(code)
}

func KeywordToCode(keyword string) (code uint16, err error) {
	return keywords.code(keyword)
}

func CodeToKeyword(code uint16) (keyword string, err error) {
	return keywords.name(code)
}
