package sftpsession

import (
	"fmt"
	"io/fs"
	"time"
)

// modeString renders permission bits the way `ls -l` does, including the
// leading file-type character, from the low 16 bits of an SFTP permissions
// field (§4.4 longname).
func modeString(perm uint32) string {
	var b [10]byte
	for i := range b {
		b[i] = '-'
	}

	switch {
	case fs.FileMode(perm)&fs.ModeDir != 0 || perm&0170000 == 0040000:
		b[0] = 'd'
	case perm&0170000 == 0120000:
		b[0] = 'l'
	}

	rwx := "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b[i+1] = rwx[i]
		}
	}
	return string(b[:])
}

// FormatLongname renders e as per `ls -l` style, filling the longname field
// of a SSH_FXP_NAME entry (§4.4) when a backend doesn't supply its own.
func FormatLongname(e DirEntry) string {
	perm := uint32(0)
	if e.Attrs.HasPermissions() {
		perm = e.Attrs.Permissions
	}

	size := e.Attrs.Size

	mtime := time.Now()
	if e.Attrs.HasACModTime() {
		mtime = time.Unix(int64(e.Attrs.MTime), 0)
	}

	uid, gid := "0", "0"
	if e.Attrs.HasUIDGID() {
		uid = fmt.Sprint(e.Attrs.UID)
		gid = fmt.Sprint(e.Attrs.GID)
	}

	month := mtime.Format("Jan")
	day := mtime.Format("2")

	var yearOrTime string
	if mtime.Before(time.Now().AddDate(0, -6, 0)) {
		yearOrTime = mtime.Format("2006")
	} else {
		yearOrTime = mtime.Format("15:04")
	}

	return fmt.Sprintf("%s %4s %-8s %-8s %8d %s % 2s %5s %s",
		modeString(perm), "1", uid, gid, size, month, day, yearOrTime, e.Name)
}
