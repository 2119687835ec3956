package render

import (
	"fmt"
	"html"
	"strings"
)

// listItem is one rendered entry of a list-shaped payload.
type listItem struct {
	index    int
	view     string
	fragment string
	raw      string
	excluded bool
}

// renderListFragment wraps each rendered item in a uniform shell: an
// index label, an include checkbox and a copy action, with the raw item
// kept in a template so copy hands back data instead of markup.
func renderListFragment(nodeID string, items []listItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="item-list" data-node-id="%s" data-item-count="%d">`,
		html.EscapeString(nodeID), len(items))

	for _, item := range items {
		shellClass := "item-shell"
		checked := " checked"
		if item.excluded {
			shellClass += " item-excluded"
			checked = ""
		}

		fmt.Fprintf(&sb, `<section class="%s" data-item-index="%d" data-view="%s">`,
			shellClass, item.index, html.EscapeString(item.view))
		fmt.Fprintf(&sb, `<header class="item-bar">`+
			`<label class="item-toggle"><input type="checkbox" data-action="toggle"%s><span class="item-label">%d/%d</span></label>`+
			`<button type="button" class="item-copy" data-action="copy">Copy</button>`+
			`</header>`,
			checked, item.index+1, len(items))
		fmt.Fprintf(&sb, `<template class="item-source">%s</template>`, html.EscapeString(item.raw))
		fmt.Fprintf(&sb, `<div class="item-body">%s</div>`, item.fragment)
		sb.WriteString(`</section>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

// listStyles is the shell styling shared by every list document.
func listStyles() string {
	return `.item-list { padding: 8px; }
.item-shell {
  margin-bottom: 12px;
  border: 1px solid var(--viewer-border);
  border-radius: 6px;
  background: var(--viewer-surface);
  overflow: hidden;
}
.item-shell.item-excluded { opacity: 0.45; }
.item-bar {
  display: flex;
  align-items: center;
  justify-content: space-between;
  padding: 4px 10px;
  border-bottom: 1px solid var(--viewer-border);
  font-size: 12px;
}
.item-toggle { display: flex; align-items: center; gap: 6px; cursor: pointer; }
.item-label { color: var(--viewer-muted); }
.item-copy {
  padding: 2px 10px;
  border: 1px solid var(--viewer-border);
  border-radius: 4px;
  background: transparent;
  color: var(--viewer-fg);
  cursor: pointer;
}
.item-copy:hover { border-color: var(--viewer-accent); color: var(--viewer-accent); }
.item-body { overflow-x: auto; }
`
}

// listScript wires the shell controls to the host message protocol:
// toggles announce item_toggled, copy announces copy_item with the raw
// payload. The surface only ever posts; the host decides what to do.
func listScript() string {
	return `<script>
(function () {
  var list = document.querySelector('.item-list');
  if (!list) return;
  var nodeId = list.getAttribute('data-node-id') || '';

  function post(type, data) {
    if (window.parent) {
      window.parent.postMessage({ type: type, node_id: nodeId, data: data }, '*');
    }
  }

  list.addEventListener('change', function (ev) {
    var box = ev.target;
    if (!box.matches('input[data-action="toggle"]')) return;
    var shell = box.closest('.item-shell');
    var index = parseInt(shell.getAttribute('data-item-index'), 10);
    shell.classList.toggle('item-excluded', !box.checked);
    post('item_toggled', { index: index, excluded: !box.checked });
  });

  list.addEventListener('click', function (ev) {
    var btn = ev.target.closest('button[data-action="copy"]');
    if (!btn) return;
    var shell = btn.closest('.item-shell');
    var index = parseInt(shell.getAttribute('data-item-index'), 10);
    var source = shell.querySelector('template.item-source');
    var content = source ? source.content.textContent : '';
    if (navigator.clipboard) {
      navigator.clipboard.writeText(content).catch(function () {});
    }
    post('copy_item', { index: index, content: content });
  });
})();
</script>`
}
