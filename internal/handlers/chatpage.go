package handlers

import "net/http"

// ChatPage serves the single-page chat interface.
func (h *Handler) ChatPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(chatPageHTML)); err != nil {
		h.logger.Error("writing chat page failed", "error", err)
	}
}

const chatPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PDF Chat</title>
<style>
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #f4f5f7; height: 100vh; display: flex; flex-direction: column;
  }
  header {
    background: #1f2937; color: #fff; padding: 14px 20px;
    display: flex; align-items: center; justify-content: space-between;
  }
  header h1 { font-size: 18px; font-weight: 600; }
  #status { font-size: 13px; color: #9ca3af; }
  #chat {
    flex: 1; overflow-y: auto; padding: 20px;
    display: flex; flex-direction: column; gap: 12px;
    max-width: 860px; width: 100%; margin: 0 auto;
  }
  .bubble {
    max-width: 75%; padding: 10px 14px; border-radius: 14px;
    line-height: 1.45; white-space: pre-wrap; font-size: 14px;
  }
  .user { align-self: flex-end; background: #2563eb; color: #fff; border-bottom-right-radius: 4px; }
  .bot  { align-self: flex-start; background: #fff; color: #111827; border-bottom-left-radius: 4px;
          box-shadow: 0 1px 2px rgba(0,0,0,.08); }
  .sources { font-size: 12px; color: #6b7280; margin-top: 6px; border-top: 1px solid #e5e7eb; padding-top: 6px; }
  .sources span { display: inline-block; background: #eef2ff; color: #4338ca;
                  border-radius: 6px; padding: 1px 7px; margin: 2px 4px 0 0; }
  footer {
    background: #fff; border-top: 1px solid #e5e7eb; padding: 12px 20px;
  }
  .controls { max-width: 860px; margin: 0 auto; display: flex; gap: 8px; }
  #message {
    flex: 1; padding: 10px 14px; border: 1px solid #d1d5db; border-radius: 10px;
    font-size: 14px; outline: none;
  }
  #message:focus { border-color: #2563eb; }
  button {
    padding: 10px 16px; border: none; border-radius: 10px; font-size: 14px;
    cursor: pointer; background: #2563eb; color: #fff;
  }
  button.secondary { background: #e5e7eb; color: #374151; }
  button:disabled { opacity: .5; cursor: default; }
  #file { display: none; }
</style>
</head>
<body>
<header>
  <h1>PDF Chat</h1>
  <div id="status">no documents loaded</div>
</header>
<div id="chat"></div>
<footer>
  <div class="controls">
    <input type="file" id="file" accept=".pdf,.md,.markdown,.txt">
    <button class="secondary" id="uploadBtn" title="Upload a document">&#128206; Upload</button>
    <input type="text" id="message" placeholder="Ask a question about your documents..." autocomplete="off">
    <button id="sendBtn">Send</button>
    <button class="secondary" id="resetBtn" title="Forget all documents and history">Reset</button>
  </div>
</footer>
<script>
const chat = document.getElementById('chat');
const input = document.getElementById('message');
const sendBtn = document.getElementById('sendBtn');
const uploadBtn = document.getElementById('uploadBtn');
const resetBtn = document.getElementById('resetBtn');
const fileInput = document.getElementById('file');
const statusEl = document.getElementById('status');

function addBubble(text, who, sources) {
  const div = document.createElement('div');
  div.className = 'bubble ' + who;
  div.textContent = text;
  if (sources && sources.length) {
    const src = document.createElement('div');
    src.className = 'sources';
    src.textContent = 'Sources: ';
    const seen = new Set();
    for (const s of sources) {
      const label = (s.source ? s.source.split('/').pop() : 'document') + (s.page ? ' p.' + s.page : '');
      if (seen.has(label)) continue;
      seen.add(label);
      const tag = document.createElement('span');
      tag.textContent = label;
      src.appendChild(tag);
    }
    div.appendChild(src);
  }
  chat.appendChild(div);
  chat.scrollTop = chat.scrollHeight;
}

async function refreshStatus() {
  try {
    const res = await fetch('/api/status');
    const data = await res.json();
    statusEl.textContent = data.ready
      ? 'ready — ' + data.model.provider + '/' + data.model.model
      : 'no documents loaded';
  } catch (e) { /* leave as-is */ }
}

async function send() {
  const text = input.value.trim();
  if (!text) return;
  input.value = '';
  addBubble(text, 'user');
  sendBtn.disabled = true;
  try {
    const res = await fetch('/api/chat', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({message: text})
    });
    const data = await res.json();
    if (!res.ok) {
      addBubble('Error: ' + (data.message || data.error), 'bot');
    } else {
      addBubble(data.answer, 'bot', data.sources);
    }
  } catch (e) {
    addBubble('Request failed: ' + e, 'bot');
  } finally {
    sendBtn.disabled = false;
    input.focus();
    refreshStatus();
  }
}

async function upload(file) {
  addBubble('Uploading ' + file.name + '…', 'bot');
  const form = new FormData();
  form.append('file', file);
  try {
    const res = await fetch('/api/upload', {method: 'POST', body: form});
    const data = await res.json();
    if (!res.ok) {
      addBubble('Upload failed: ' + (data.message || data.error), 'bot');
    } else {
      addBubble('Indexed ' + data.file + ' (' + data.chunks + ' chunks). Ask away!', 'bot');
    }
  } catch (e) {
    addBubble('Upload failed: ' + e, 'bot');
  }
  refreshStatus();
}

sendBtn.addEventListener('click', send);
input.addEventListener('keydown', e => { if (e.key === 'Enter') send(); });
uploadBtn.addEventListener('click', () => fileInput.click());
fileInput.addEventListener('change', () => {
  if (fileInput.files.length) upload(fileInput.files[0]);
  fileInput.value = '';
});
resetBtn.addEventListener('click', async () => {
  await fetch('/api/reset', {method: 'POST'});
  chat.innerHTML = '';
  addBubble('All documents and history cleared.', 'bot');
  refreshStatus();
});

refreshStatus();
</script>
</body>
</html>
`
