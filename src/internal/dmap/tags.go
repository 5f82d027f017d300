package dmap

// Kind represents the wire encoding of a tag's payload
type Kind uint8

// payload kinds
const (
	KindUByte Kind = iota
	KindByte
	KindUShort
	KindShort
	KindUInt
	KindInt
	KindULong
	KindLong
	KindMultiInt
	KindMultiUInt
	KindDatetime
	KindVersion
	KindString
	KindBinary
	KindContainer
)

// TagInfo describes one known content code: a human readable name and the
// kind of its payload
type TagInfo struct {
	Name string
	Kind Kind
}

// Tags maps the known four character content codes to their description and
// payload kind. Codes that are not listed here are decoded as raw binary.
var Tags = map[string]TagInfo{
	"abal": {"daap.browsealbumlisting", KindContainer},
	"abar": {"daap.browseartistlisting", KindContainer},
	"abcp": {"daap.browsecomposerlisting", KindContainer},
	"abgn": {"daap.browsegenrelisting", KindContainer},
	"abpl": {"daap.baseplaylist", KindUByte},
	"abro": {"daap.databasebrowse", KindContainer},
	"adbs": {"daap.databasesongs", KindContainer},
	"aeCR": {"com.apple.itunes.content-rating", KindString},
	"aeEN": {"com.apple.itunes.episode-num-str", KindString},
	"aeES": {"com.apple.itunes.episode-sort", KindUInt},
	"aeFP": {"com.apple.itunes.req-fplay", KindUByte},
	"aeGU": {"com.apple.itunes.gapless-dur", KindULong},
	"aeGD": {"com.apple.itunes.gapless-enc-dr", KindUInt},
	"aeGE": {"com.apple.itunes.gapless-enc-del", KindUInt},
	"aeGH": {"com.apple.itunes.gapless-heur", KindUInt},
	"aeGR": {"com.apple.itunes.gapless-resy", KindULong},
	"aeHV": {"com.apple.itunes.has-video", KindUByte},
	"aeMK": {"com.apple.itunes.mediakind", KindUByte},
	"aeNN": {"com.apple.itunes.network-name", KindString},
	"aeNV": {"com.apple.itunes.norm-volume", KindUInt},
	"aePC": {"com.apple.itunes.is-podcast", KindUByte},
	"aePI": {"com.apple.itunes.itms-playlistid", KindUInt},
	"aePP": {"com.apple.itunes.is-podcast-playlist", KindUByte},
	"aePS": {"com.apple.itunes.special-playlist", KindUByte},
	"aeSG": {"com.apple.itunes.saved-genius", KindUByte},
	"aeSI": {"com.apple.itunes.itms-songid", KindUInt},
	"aeSN": {"com.apple.itunes.series-name", KindString},
	"aeSP": {"com.apple.itunes.smart-playlist", KindUByte},
	"aeSU": {"com.apple.itunes.season-num", KindUInt},
	"aeSV": {"com.apple.itunes.music-sharing-version", KindVersion},
	"agal": {"daap.albumgrouping", KindContainer},
	"agrp": {"daap.songgrouping", KindString},
	"aply": {"daap.databaseplaylists", KindContainer},
	"aprm": {"daap.playlistrepeatmode", KindUByte},
	"apro": {"daap.protocolversion", KindVersion},
	"apsm": {"daap.playlistshufflemode", KindUByte},
	"apso": {"daap.playlistsongs", KindContainer},
	"arif": {"daap.resolveinfo", KindContainer},
	"arsv": {"daap.resolve", KindContainer},
	"asaa": {"daap.songalbumartist", KindString},
	"asai": {"daap.songalbumid", KindULong},
	"asal": {"daap.songalbum", KindString},
	"asar": {"daap.songartist", KindString},
	"asbk": {"daap.bookmarkable", KindUByte},
	"asbo": {"daap.songbookmark", KindUInt},
	"asbr": {"daap.songbitrate", KindUShort},
	"asbt": {"daap.songbeatsperminute", KindUShort},
	"ascd": {"daap.songcodectype", KindUInt},
	"ascm": {"daap.songcomment", KindString},
	"ascn": {"daap.songcontentdescription", KindString},
	"asco": {"daap.songcompilation", KindUByte},
	"ascp": {"daap.songcomposer", KindString},
	"ascr": {"daap.songcontentrating", KindUByte},
	"ascs": {"daap.songcodecsubtype", KindUInt},
	"asct": {"daap.songcategory", KindString},
	"asda": {"daap.songdateadded", KindDatetime},
	"asdb": {"daap.songdisabled", KindUByte},
	"asdc": {"daap.songdisccount", KindUShort},
	"asdk": {"daap.songdatakind", KindUByte},
	"asdm": {"daap.songdatemodified", KindDatetime},
	"asdn": {"daap.songdiscnumber", KindUShort},
	"asdt": {"daap.songdescription", KindString},
	"ased": {"daap.songextradata", KindUShort},
	"aseq": {"daap.songeqpreset", KindString},
	"asfm": {"daap.songformat", KindString},
	"asgn": {"daap.songgenre", KindString},
	"asgp": {"daap.songgapless", KindUByte},
	"ashp": {"daap.songhasbeenplayed", KindUByte},
	"asky": {"daap.songkeywords", KindString},
	"aslc": {"daap.songlongcontentdescription", KindString},
	"asls": {"daap.songlongsize", KindULong},
	"aspu": {"daap.songpodcasturl", KindString},
	"asri": {"daap.songartistid", KindULong},
	"asrv": {"daap.songrelativevolume", KindByte},
	"assa": {"daap.sortartist", KindString},
	"assc": {"daap.sortcomposer", KindString},
	"assl": {"daap.sortalbumartist", KindString},
	"assn": {"daap.sortname", KindString},
	"assp": {"daap.songstoptime", KindUInt},
	"assr": {"daap.songsamplerate", KindUInt},
	"asss": {"daap.sortseriesname", KindString},
	"asst": {"daap.songstarttime", KindUInt},
	"assu": {"daap.sortalbum", KindString},
	"assz": {"daap.songsize", KindUInt},
	"astc": {"daap.songtrackcount", KindUShort},
	"astm": {"daap.songtime", KindUInt},
	"astn": {"daap.songtracknumber", KindUShort},
	"asul": {"daap.songdataurl", KindString},
	"asur": {"daap.songuserrating", KindUByte},
	"asyr": {"daap.songyear", KindUShort},
	"ated": {"daap.supportsextradata", KindUShort},
	"avdb": {"daap.serverdatabases", KindContainer},
	"caar": {"dacp.availablerepeatstates", KindUInt},
	"caas": {"dacp.availableshufflestates", KindUInt},
	"caci": {"dacp.controlint", KindContainer},
	"caia": {"dacp.isactive", KindUByte},
	"cana": {"dacp.nowplayingartist", KindString},
	"cang": {"dacp.nowplayinggenre", KindString},
	"canl": {"dacp.nowplayingalbum", KindString},
	"cann": {"dacp.nowplayingname", KindString},
	"canp": {"dacp.nowplayingids", KindMultiUInt},
	"cant": {"dacp.nowplayingtime", KindUInt},
	"caps": {"dacp.playerstate", KindUByte},
	"carp": {"dacp.repeatstate", KindUByte},
	"cash": {"dacp.shufflestate", KindUByte},
	"casp": {"dacp.speakers", KindContainer},
	"cast": {"dacp.songtime", KindUInt},
	"cavc": {"dacp.volumecontrollable", KindUByte},
	"cacr": {"dacp.cueresponse", KindContainer},
	"ceGS": {"com.apple.itunes.genius-selectable", KindUInt},
	"ceJC": {"com.apple.itunes.jukebox-client-vote", KindUByte},
	"ceJI": {"com.apple.itunes.jukebox-current", KindUInt},
	"ceJS": {"com.apple.itunes.jukebox-score", KindUShort},
	"ceJV": {"com.apple.itunes.jukebox-vote", KindUInt},
	"ceSG": {"com.apple.itunes.saved-genius", KindUByte},
	"ceVO": {"com.apple.itunes.voting-enabled", KindUByte},
	"ceWM": {"com.apple.itunes.welcome-message", KindString},
	"cmgt": {"dmcp.getpropertyresponse", KindContainer},
	"cmik": {"dmcp.fullscreen", KindUByte},
	"cmmk": {"dmcp.mediakind", KindUInt},
	"cmnm": {"dmcp.devicename", KindString},
	"cmpa": {"dmcp.pairinganswer", KindContainer},
	"cmpg": {"dmcp.pairingguid", KindULong},
	"cmpr": {"dmcp.protocolversion", KindVersion},
	"cmsp": {"dmcp.supportsplay", KindUByte},
	"cmsr": {"dmcp.serverrevision", KindUInt},
	"cmst": {"dmcp.playstatus", KindContainer},
	"cmsv": {"dmcp.supportsvolume", KindUByte},
	"cmty": {"dmcp.devicetype", KindString},
	"cmvo": {"dmcp.volume", KindUInt},
	"cass": {"dmcp.supportsshuffle", KindUByte},
	"casu": {"dmcp.supportsupdate", KindUByte},
	"mbcl": {"dmap.bag", KindContainer},
	"mccr": {"dmap.contentcodesresponse", KindContainer},
	"mcna": {"dmap.contentcodesname", KindString},
	"mcnm": {"dmap.contentcodesnumber", KindUInt},
	"mcon": {"dmap.container", KindContainer},
	"mctc": {"dmap.containercount", KindUInt},
	"mcti": {"dmap.containeritemid", KindUInt},
	"mcty": {"dmap.contentcodestype", KindUShort},
	"mdcl": {"dmap.dictionary", KindContainer},
	"medc": {"dmap.editdictionary", KindContainer},
	"meds": {"dmap.editcommandssupported", KindUInt},
	"miid": {"dmap.itemid", KindUInt},
	"mikd": {"dmap.itemkind", KindUByte},
	"mimc": {"dmap.itemcount", KindUInt},
	"minm": {"dmap.itemname", KindString},
	"mlcl": {"dmap.listing", KindContainer},
	"mlid": {"dmap.sessionid", KindUInt},
	"mlit": {"dmap.listingitem", KindContainer},
	"mlog": {"dmap.loginresponse", KindContainer},
	"mpco": {"dmap.parentcontainerid", KindUInt},
	"mper": {"dmap.persistentid", KindULong},
	"mpro": {"dmap.protocolversion", KindVersion},
	"mrco": {"dmap.returnedcount", KindUInt},
	"msal": {"dmap.supportsautologout", KindUByte},
	"msas": {"dmap.authenticationschemes", KindUByte},
	"msau": {"dmap.authenticationmethod", KindUByte},
	"msbr": {"dmap.supportsbrowse", KindUByte},
	"msdc": {"dmap.databasescount", KindUInt},
	"msed": {"dmap.supportsedit", KindUByte},
	"msex": {"dmap.supportsextensions", KindUByte},
	"mshc": {"dmap.sortingheaderchar", KindUShort},
	"mshi": {"dmap.sortingheaderindex", KindUInt},
	"mshl": {"dmap.sortingheaderlisting", KindContainer},
	"mshn": {"dmap.sortingheadernumber", KindUInt},
	"msix": {"dmap.supportsindex", KindUByte},
	"mslr": {"dmap.loginrequired", KindUByte},
	"msma": {"dmap.machineaddress", KindULong},
	"msml": {"dmap.machinelisting", KindContainer},
	"mspi": {"dmap.supportspersistentids", KindUByte},
	"msqy": {"dmap.supportsquery", KindUByte},
	"msrs": {"dmap.supportsresolve", KindUByte},
	"msrv": {"dmap.serverinforesponse", KindContainer},
	"mstc": {"dmap.utctime", KindDatetime},
	"mstm": {"dmap.timeoutinterval", KindUInt},
	"msto": {"dmap.utcoffset", KindInt},
	"msts": {"dmap.statusstring", KindString},
	"mstt": {"dmap.status", KindUInt},
	"msup": {"dmap.supportsupdate", KindUByte},
	"mtco": {"dmap.specifiedtotalcount", KindUInt},
	"mudl": {"dmap.deletedidlisting", KindContainer},
	"mupd": {"dmap.updateresponse", KindContainer},
	"musr": {"dmap.serverrevision", KindUInt},
	"muty": {"dmap.updatetype", KindUByte},
}

// Properties maps the symbolic property names remotes send (e.g. in the meta
// and properties request parameters) to the content code that carries the
// value on the wire.
var Properties = map[string]string{
	"com.apple.itunes.has-video":      "aeHV",
	"com.apple.itunes.mediakind":      "aeMK",
	"com.apple.itunes.smart-playlist": "aeSP",
	"dacp.availablerepeatstates":      "caar",
	"dacp.availableshufflestates":     "caas",
	"dacp.nowplaying":                 "canp",
	"dacp.playerstate":                "caps",
	"dacp.playingtime":                "cant",
	"dacp.repeatstate":                "carp",
	"dacp.shufflestate":               "cash",
	"dacp.volumecontrollable":         "cavc",
	"daap.baseplaylist":               "abpl",
	"daap.songalbum":                  "asal",
	"daap.songalbumartist":            "asaa",
	"daap.songalbumid":                "asai",
	"daap.songartist":                 "asar",
	"daap.songartistid":               "asri",
	"daap.songcompilation":            "asco",
	"daap.songcomposer":               "ascp",
	"daap.songcontentdescription":     "ascn",
	"daap.songdisabled":               "asdb",
	"daap.songdiscnumber":             "asdn",
	"daap.songgenre":                  "asgn",
	"daap.songtime":                   "astm",
	"daap.songtracknumber":            "astn",
	"daap.songyear":                   "asyr",
	"dmap.containeritemid":            "mcti",
	"dmap.containercount":             "mctc",
	"dmap.editcommandssupported":      "meds",
	"dmap.itemcount":                  "mimc",
	"dmap.itemid":                     "miid",
	"dmap.itemkind":                   "mikd",
	"dmap.itemname":                   "minm",
	"dmap.parentcontainerid":          "mpco",
	"dmap.persistentid":               "mper",
	"dmcp.volume":                     "cmvo",
}

// propertyByTag is the reverse of Properties, used for pretty printing
var propertyByTag = func() map[string]string {
	m := make(map[string]string, len(Properties))
	for prop, tag := range Properties {
		m[tag] = prop
	}
	return m
}()

// TagForProperty resolves a symbolic property name to its content code and
// tag info. The second return value is false if the property is unknown.
func TagForProperty(prop string) (string, TagInfo, bool) {
	tag, ok := Properties[prop]
	if !ok {
		return "", TagInfo{}, false
	}
	info, ok := Tags[tag]
	return tag, info, ok
}

// PropertyForTag returns the symbolic property name of a content code if one
// exists
func PropertyForTag(tag string) (string, bool) {
	prop, ok := propertyByTag[tag]
	return prop, ok
}
