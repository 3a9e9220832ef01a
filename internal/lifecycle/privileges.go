package lifecycle

import (
	"context"
	"fmt"
	"os/user"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"strconv"
	"syscall"
	"time"
)

// Target identity for privilege de-escalation. Empty fields are left unchanged.
type Credentials struct {
	User  string
	Group string
}

func (creds Credentials) Empty() bool {
	return creds.User == "" && creds.Group == ""
}

// Accepts names or numeric ids
func lookupUID(name string) (uid int, err error) {
	account, err := user.Lookup(name)
	if err != nil {
		var idErr error
		account, idErr = user.LookupId(name)
		if idErr != nil {
			err = fmt.Errorf("unknown user '%s': %v", name, err)
			return
		}
		err = nil
	}

	uid, err = strconv.Atoi(account.Uid)
	if err != nil {
		err = fmt.Errorf("invalid uid '%s' for user '%s': %v", account.Uid, name, err)
	}
	return
}

// Accepts names or numeric ids
func lookupGID(name string) (gid int, err error) {
	group, err := user.LookupGroup(name)
	if err != nil {
		var idErr error
		group, idErr = user.LookupGroupId(name)
		if idErr != nil {
			err = fmt.Errorf("unknown group '%s': %v", name, err)
			return
		}
		err = nil
	}

	gid, err = strconv.Atoi(group.Gid)
	if err != nil {
		err = fmt.Errorf("invalid gid '%s' for group '%s': %v", group.Gid, name, err)
	}
	return
}

// Resolves both names up front so typos fail at startup instead of after the delay
func (creds Credentials) Resolve() (uid int, gid int, err error) {
	uid, gid = -1, -1
	if creds.Group != "" {
		gid, err = lookupGID(creds.Group)
		if err != nil {
			return
		}
	}
	if creds.User != "" {
		uid, err = lookupUID(creds.User)
		if err != nil {
			return
		}
	}
	return
}

// Switches the process to the given group then user. Group must change first,
// an unprivileged user can no longer change its group.
// The syscall package applies each change to every OS thread of the process.
func DropPrivileges(ctx context.Context, creds Credentials) (err error) {
	if creds.Empty() {
		return
	}

	uid, gid, err := creds.Resolve()
	if err != nil {
		return
	}

	if gid >= 0 {
		err = syscall.Setgroups([]int{gid})
		if err != nil {
			err = fmt.Errorf("failed to set supplementary groups to %d: %v", gid, err)
			return
		}
		err = syscall.Setgid(gid)
		if err != nil {
			err = fmt.Errorf("failed to set group to '%s' (%d): %v", creds.Group, gid, err)
			return
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Changed group to %s (%d)\n", creds.Group, gid)
	}

	if uid >= 0 {
		err = syscall.Setuid(uid)
		if err != nil {
			err = fmt.Errorf("failed to set user to '%s' (%d): %v", creds.User, uid, err)
			return
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Changed user to %s (%d)\n", creds.User, uid)
	}
	return
}

// Drops privileges once delay has elapsed, unless ctx ends first.
// onFailure runs with the error if the drop fails.
func ScheduleDrop(ctx context.Context, delay time.Duration, creds Credentials, onFailure func(error)) (cancel func() bool) {
	ctx = logctx.AppendCtxTag(ctx, global.NSPrivilege)

	if creds.Empty() {
		cancel = func() bool { return false }
		return
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Dropping privileges to user '%s' group '%s' in %s\n", creds.User, creds.Group, delay)

	timer := time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		err := DropPrivileges(ctx, creds)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Privilege de-escalation failed: %v\n", err)
			onFailure(err)
		}
	})
	cancel = timer.Stop
	return
}
