package badgerdb

// Key layout. Every collection lives under its own prefix; index entries are
// key-only and point back to the primary record id.
//
//	user/<id>                              user record
//	idx/username/<username>                -> user id
//	case/<id>                              case record
//	idx/casenum/<number>                   -> case id
//	idx/case/inspector/<inspector>/<id>    key-only
//	idx/case/status/<status>/<id>          key-only
//	media/<id>                             media record
//	idx/media/case/<case>/<id>             key-only
//	audit/<id>                             audit entry (ULID id: chronological)
//	idx/audit/user/<user>/<id>             key-only
//	idx/audit/entity/<type>/<entity>/<id>  key-only
//	idx/audit/action/<action>/<id>         key-only
//	draft/user/<user>                      draft record
//	session                                signed session token
//	setting/<name>                         setting value
const (
	prefixUser          = "user/"
	prefixUsernameIdx   = "idx/username/"
	prefixCase          = "case/"
	prefixCaseNumberIdx = "idx/casenum/"
	prefixInspectorIdx  = "idx/case/inspector/"
	prefixStatusIdx     = "idx/case/status/"
	prefixMedia         = "media/"
	prefixMediaCaseIdx  = "idx/media/case/"
	prefixAudit         = "audit/"
	prefixAuditUserIdx  = "idx/audit/user/"
	prefixAuditEntity   = "idx/audit/entity/"
	prefixAuditAction   = "idx/audit/action/"
	prefixDraft         = "draft/user/"
	prefixSetting       = "setting/"
	keySession          = "session"
)

func userKey(id string) []byte { return []byte(prefixUser + id) }
func usernameKey(name string) []byte { return []byte(prefixUsernameIdx + name) }
func caseKey(id string) []byte { return []byte(prefixCase + id) }
func caseNumberKey(num string) []byte { return []byte(prefixCaseNumberIdx + num) }
func mediaKey(id string) []byte { return []byte(prefixMedia + id) }
func auditKey(id string) []byte { return []byte(prefixAudit + id) }
func draftKey(userID string) []byte { return []byte(prefixDraft + userID) }
func settingKey(name string) []byte { return []byte(prefixSetting + name) }
func sessionKey() []byte { return []byte(keySession) }

func inspectorIdxKey(inspectorID, caseID string) []byte {
	return []byte(prefixInspectorIdx + inspectorID + "/" + caseID)
}

func statusIdxKey(status, caseID string) []byte {
	return []byte(prefixStatusIdx + status + "/" + caseID)
}

func mediaCaseIdxKey(caseID, mediaID string) []byte {
	return []byte(prefixMediaCaseIdx + caseID + "/" + mediaID)
}

func auditUserIdxKey(userID, entryID string) []byte {
	return []byte(prefixAuditUserIdx + userID + "/" + entryID)
}

func auditEntityIdxKey(entityType, entityID, entryID string) []byte {
	return []byte(prefixAuditEntity + entityType + "/" + entityID + "/" + entryID)
}

func auditActionIdxKey(action, entryID string) []byte {
	return []byte(prefixAuditAction + action + "/" + entryID)
}

// tailID extracts the record id after the last separator of an index key.
func tailID(key []byte) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return string(key[i+1:])
		}
	}
	return string(key)
}
