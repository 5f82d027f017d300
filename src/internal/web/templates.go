package web

import "html/template"

var statusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.ServerName}}</title>
<style>
body { font-family: sans-serif; background: #1d1d1d; color: #e8e8e8; margin: 2em; }
img { float: left; margin-right: 1.5em; }
#track { font-size: 1.4em; }
#artist, #album { color: #9a9a9a; }
ol { clear: both; padding-top: 1.5em; }
li.current { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.ServerName}}</h1>
<img id="art" src="/web/albumart/160x160/nowplaying" width="160" height="160" alt="">
<div id="track">&mdash;</div>
<div id="artist"></div>
<div id="album"></div>
<ol id="playlist"></ol>
<script>
function refresh() {
    fetch('/web/status/json').then(function (r) { return r.json(); }).then(function (data) {
        var track = data.track;
        document.getElementById('track').textContent = track ? track.name : '—';
        document.getElementById('artist').textContent = track ? track.artist.name : '';
        document.getElementById('album').textContent = track ? track.album.name : '';
        var list = document.getElementById('playlist');
        list.textContent = '';
        data.playlist.forEach(function (item, index) {
            var li = document.createElement('li');
            li.textContent = item.artist.name + ' – ' + item.name;
            if (index === data.status.playlist_index) { li.className = 'current'; }
            list.appendChild(li);
        });
        document.getElementById('art').src =
            '/web/albumart/160x160/nowplaying?ts=' + Date.now();
    });
}
refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>
`))

var pairingTmpl = template.Must(template.New("pairing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pairing &middot; {{.ServerName}}</title>
<style>
body { font-family: sans-serif; background: #1d1d1d; color: #e8e8e8; margin: 2em; }
input, select, button { font-size: 1.1em; padding: 0.3em; }
</style>
</head>
<body>
<h1>Pair a remote</h1>
<p>Open the Remote app, add a library and enter its passcode here.</p>
<form method="post" action="/web/pairing">
<select name="remotes" id="remotes"></select>
<input name="code" placeholder="Passcode" maxlength="4" autocomplete="off">
<button type="submit">Pair</button>
</form>
<script>
fetch('/web/pairing/remotes').then(function (r) { return r.json(); }).then(function (data) {
    var select = document.getElementById('remotes');
    Object.keys(data.remotes).forEach(function (service) {
        var option = document.createElement('option');
        option.value = service;
        option.textContent = data.remotes[service];
        select.appendChild(option);
    });
});
</script>
</body>
</html>
`))
