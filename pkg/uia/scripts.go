package uia

import (
	"encoding/json"
	"fmt"
)

const (
	actionClick  = "click"
	actionSelect = "select"
	actionFocus  = "focus"
	// actionLocate 只校验元素并返回当前位置，同时把顶层窗口置前
	actionLocate = "locate"
)

// scriptPrelude is shared by every bridge script. Each script prints exactly
// one JSON object on its last stdout line.
const scriptPrelude = `
import json
import sys

def emit(obj):
    sys.stdout.write(json.dumps(obj) + "\n")
    sys.stdout.flush()

try:
    from pywinauto import Desktop
except ImportError:
    emit({"error": "pywinauto not installed"})
    sys.exit(0)

def rect_of(elem):
    try:
        r = elem.rectangle()
        return {"x": r.left, "y": r.top, "width": r.width(), "height": r.height()}
    except Exception:
        return {"x": 0, "y": 0, "width": 0, "height": 0}

def flag(fn):
    try:
        return bool(fn())
    except Exception:
        return False

def describe(elem, path):
    info = elem.element_info
    return {
        "name": elem.window_text() or "",
        "control_type": info.control_type or "",
        "class_name": info.class_name or "",
        "automation_id": info.automation_id or "",
        "rect": rect_of(elem),
        "is_enabled": flag(elem.is_enabled),
        "is_visible": flag(elem.is_visible),
        "path": path,
        "children": [],
    }
`

const listWindowsScript = scriptPrelude + `
try:
    out = []
    for w in Desktop(backend="uia").windows():
        try:
            out.append({
                "handle": w.handle or 0,
                "title": w.window_text() or "",
                "pid": w.process_id(),
                "class_name": w.element_info.class_name or "",
                "control_type": w.element_info.control_type or "",
                "rect": rect_of(w),
            })
        except Exception:
            pass
    emit({"windows": out})
except Exception as e:
    emit({"error": str(e)})
`

// buildDumpTreeScript dumps the subtree of one top-level window down to maxDepth.
// A node whose children cannot be enumerated carries "error" instead of
// failing the whole dump.
func buildDumpTreeScript(handle, maxDepth int) string {
	return scriptPrelude + fmt.Sprintf(`
HANDLE = %d
MAX_DEPTH = %d

def dump(elem, path, depth):
    node = describe(elem, path)
    if depth >= MAX_DEPTH:
        node["truncated"] = True
        return node
    try:
        kids = elem.children()
    except Exception as e:
        node["error"] = str(e) or type(e).__name__
        return node
    for i, child in enumerate(kids):
        try:
            node["children"].append(dump(child, path + [i], depth + 1))
        except Exception as e:
            node["children"].append({"path": path + [i], "error": str(e) or type(e).__name__, "children": []})
    return node

try:
    win = Desktop(backend="uia").window(handle=HANDLE).wrapper_object()
    emit({"root": dump(win, [], 0)})
except Exception as e:
    emit({"error": str(e) or type(e).__name__})
`, handle, maxDepth)
}

// buildInvokeScript walks the child-index path from the window and performs
// the action. The element's label must still equal expectedName.
// The locate action only brings the window to the front and reports the
// element's current rect.
func buildInvokeScript(handle int, path []int, expectedName, action string) string {
	if path == nil {
		path = []int{}
	}
	pathJSON, _ := json.Marshal(path)
	nameJSON, _ := json.Marshal(expectedName)
	actionJSON, _ := json.Marshal(action)

	return scriptPrelude + fmt.Sprintf(`
HANDLE = %d
PATH = %s
EXPECTED = %s
ACTION = %s

try:
    top = Desktop(backend="uia").window(handle=HANDLE).wrapper_object()
    elem = top
    for i in PATH:
        kids = elem.children()
        if i >= len(kids):
            emit({"stale": True, "error": "child index out of range"})
            sys.exit(0)
        elem = kids[i]
    if (elem.window_text() or "") != EXPECTED:
        emit({"stale": True, "error": "label changed to %%r" %% elem.window_text()})
        sys.exit(0)
    if ACTION == "click":
        elem.click_input()
    elif ACTION == "select":
        elem.select()
    elif ACTION == "focus":
        elem.set_focus()
    elif ACTION == "locate":
        try:
            top.set_focus()
        except Exception:
            pass
        emit({"ok": True, "rect": rect_of(elem)})
        sys.exit(0)
    else:
        emit({"error": "unknown action " + ACTION})
        sys.exit(0)
    emit({"ok": True})
except Exception as e:
    emit({"error": str(e) or type(e).__name__})
`, handle, pathJSON, nameJSON, actionJSON)
}
