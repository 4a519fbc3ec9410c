package taxonomy

import "ntrl/internal/types"

// defaultCatalog is the full manipulation-type catalog. Six categories:
//
//	A  sensationalism          (urgency, hyperbole, shock framing)
//	B  loaded language         (rage verbs, epithets, intensifiers)
//	C  framing                 (hidden agency, rhetorical structure)
//	D  sourcing / attribution  (vague and anonymous sourcing)
//	E  narrative / motive      (motive certainty, tribal priming)
//	F  omission / balance      (false balance, missing context)
//
// Pattern-less entries are detected structurally or semantically only.
var defaultCatalog = []ManipulationType{
	// ----- A: sensationalism --------------------------------------------
	{TypeID: "A.1.1", Name: "hyperbolic crisis language", Category: "A", Severity: 4, Action: types.ActionReplace,
		Patterns: []string{`\b(catastroph(?:e|ic)|apocalyptic|nightmare scenario|total (?:disaster|collapse)|meltdown)\b`}},
	{TypeID: "A.1.2", Name: "fear appeal", Category: "A", Severity: 4, Action: types.ActionRewrite,
		Patterns: []string{`\b(terrifying|horrifying|chilling|alarming|frightening|menac(?:e|ing))\b`}},
	{TypeID: "A.1.3", Name: "shock framing", Category: "A", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(shocking|stunning|bombshell|jaw[- ]dropping|explosive (?:report|claim|allegation)s?)\b`}},
	{TypeID: "A.1.4", Name: "doom forecasting", Category: "A", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(spell(?:s)? (?:doom|disaster)|on the brink of|teetering on)\b`}},
	{TypeID: "A.2.1", Name: "manufactured urgency", Category: "A", Severity: 3, Action: types.ActionRemove,
		Patterns: []string{`\b(breaking|urgent|just in|developing story|happening now)\b`, `\bALERT\b`}},
	{TypeID: "A.2.2", Name: "superlative inflation", Category: "A", Severity: 2, Action: types.ActionReplace,
		Patterns: []string{`\b(unprecedented|historic first|biggest ever|worst in history|never before seen)\b`}},
	{TypeID: "A.2.3", Name: "devastation framing", Category: "A", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(devastat(?:es|ed|ing)|obliterat(?:es|ed|ing)|annihilat(?:es|ed|ing)|wreck(?:s|ed)? havoc)\b`}},
	{TypeID: "A.2.4", Name: "countdown pressure", Category: "A", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(time is running out|last chance|before it'?s too late)\b`}},
	{TypeID: "A.3.1", Name: "curiosity-gap clickbait", Category: "A", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(you won'?t believe|what happened next|the reason why will|this one (?:trick|thing))\b`}},
	{TypeID: "A.3.2", Name: "listicle hype", Category: "A", Severity: 1, Action: types.ActionAnnotate,
		Patterns: []string{`\b(\d+ (?:things|reasons|ways) (?:you|that will))\b`}},
	{TypeID: "A.3.3", Name: "second-person bait", Category: "A", Severity: 2, Action: types.ActionRewrite,
		Patterns: []string{`\b(what (?:you|every\w*) need(?:s)? to know)\b`}},
	{TypeID: "A.4.1", Name: "viral framing", Category: "A", Severity: 2, Action: types.ActionRemove,
		Patterns: []string{`\b(goes? viral|internet (?:erupts|explodes)|breaks the internet)\b`}},
	{TypeID: "A.4.2", Name: "emotion-priming headline", Category: "A", Severity: 3, Action: types.ActionRewrite},
	{TypeID: "A.4.3", Name: "exclamatory punctuation abuse", Category: "A", Severity: 1, Action: types.ActionRemove,
		Patterns: []string{`!{2,}`}},
	{TypeID: "A.5.1", Name: "all-caps shouting", Category: "A", Severity: 2, Action: types.ActionRewrite,
		Patterns: []string{`\b[A-Z]{2}[A-Z]+(?:\s+[A-Z]{2}[A-Z]+){1,}\b`}},
	{TypeID: "A.5.2", Name: "chaos framing", Category: "A", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(chaos|mayhem|pandemonium|firestorm|frenzy)\b`}},

	// ----- B: loaded language -------------------------------------------
	{TypeID: "B.1.1", Name: "loaded adjectives", Category: "B", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(radical|extremist|notorious|disgraced|embattled|controversial)\b`}},
	{TypeID: "B.1.2", Name: "loaded adverbs", Category: "B", Severity: 2, Action: types.ActionRemove,
		Patterns: []string{`\b(shockingly|outrageously|disturbingly|brazenly|shamelessly)\b`}},
	{TypeID: "B.1.3", Name: "emotive intensifiers", Category: "B", Severity: 2, Action: types.ActionRemove,
		Patterns: []string{`\b(utterly|absolutely (?:disastrous|insane|ridiculous)|completely (?:unhinged|out of control))\b`}},
	{TypeID: "B.1.4", Name: "sneering diminutives", Category: "B", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(so[- ]called|self[- ](?:styled|proclaimed|described))\b`}},
	{TypeID: "B.2.1", Name: "conflict verbs", Category: "B", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(blast(?:s|ed)|attack(?:s|ed)|erupt(?:s|ed)|clash(?:es|ed)|fum(?:es|ed))\b`}},
	{TypeID: "B.2.2", Name: "rage verbs", Category: "B", Severity: 4, Action: types.ActionReplace,
		Patterns: []string{`\b(slam(?:s|med)?|rip(?:s|ped)? into|lash(?:es|ed) out|torch(?:es|ed)|eviscerat(?:es|ed)|destroy(?:s|ed))\b`}},
	{TypeID: "B.2.3", Name: "violence metaphors", Category: "B", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(war on|battle (?:over|for)|under siege|in the crosshairs|opens? fire on)\b`}},
	{TypeID: "B.2.4", Name: "humiliation verbs", Category: "B", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(humiliat(?:es|ed)|embarrass(?:es|ed)|school(?:s|ed)|owns?|wreck(?:s|ed))\b`}},
	{TypeID: "B.3.1", Name: "dysphemism", Category: "B", Severity: 4, Action: types.ActionReplace,
		Patterns: []string{`\b(regime|crony|lackey|puppet|henchman|mouthpiece)\b`}},
	{TypeID: "B.3.2", Name: "absolute terms", Category: "B", Severity: 2, Action: types.ActionAnnotate},
	{TypeID: "B.3.3", Name: "scare quotes", Category: "B", Severity: 2, Action: types.ActionAnnotate},
	{TypeID: "B.3.4", Name: "euphemism", Category: "B", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(collateral damage|enhanced interrogation|right[- ]sizing|alternative facts)\b`}},
	{TypeID: "B.4.1", Name: "moralizing labels", Category: "B", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(disgraceful|shameful|despicable|appalling|sickening)\b`}},
	{TypeID: "B.4.2", Name: "hero framing", Category: "B", Severity: 2, Action: types.ActionReplace,
		Patterns: []string{`\b(hero(?:ic(?:ally)?)?|brave(?:ly)? stands? up|fearless(?:ly)?)\b`}},
	{TypeID: "B.4.3", Name: "villain framing", Category: "B", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(villain|evil|sinister|nefarious|menacing figure)\b`}},
	{TypeID: "B.5.1", Name: "contempt markers", Category: "B", Severity: 3, Action: types.ActionRemove,
		Patterns: []string{`\b(predictably|of course,|as usual,|true to form)\b`}},
	{TypeID: "B.5.2", Name: "snarl words", Category: "B", Severity: 4, Action: types.ActionReplace,
		Patterns: []string{`\b(woke mob|deplorables|snowflakes?|sheeple|fanatics?)\b`}},

	// ----- C: framing ---------------------------------------------------
	{TypeID: "C.1.1", Name: "agentless passive", Category: "C", Severity: 3, Action: types.ActionRewrite},
	{TypeID: "C.1.2", Name: "passive with agent", Category: "C", Severity: 2, Action: types.ActionAnnotate},
	{TypeID: "C.1.3", Name: "nominalized agency", Category: "C", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(mistakes were made|shots were fired|decisions were taken)\b`}},
	{TypeID: "C.2.1", Name: "rhetorical question", Category: "C", Severity: 2, Action: types.ActionRewrite},
	{TypeID: "C.2.2", Name: "just-asking-questions", Category: "C", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(just asking questions?|makes? you wonder|worth asking|one has to ask)\b`}},
	{TypeID: "C.2.3", Name: "leading negation", Category: "C", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(it'?s not (?:just|only) about)\b`}},
	{TypeID: "C.3.1", Name: "headline-body mismatch", Category: "C", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "C.3.2", Name: "misleading juxtaposition", Category: "C", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "C.3.3", Name: "buried correction", Category: "C", Severity: 3, Action: types.ActionAnnotate},
	{TypeID: "C.4.1", Name: "presupposition smuggling", Category: "C", Severity: 4, Action: types.ActionRewrite,
		Patterns: []string{`\b(as everyone knows|it goes without saying|needless to say|obviously)\b`}},
	{TypeID: "C.4.2", Name: "false dilemma framing", Category: "C", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(the only (?:choice|option|question) is|either .{1,40} or face)\b`}},
	{TypeID: "C.4.3", Name: "slippery slope", Category: "C", Severity: 3, Action: types.ActionAnnotate,
		Patterns: []string{`\b(slippery slope|where does it end|what'?s next[,?])\b`}},

	// ----- D: sourcing / attribution ------------------------------------
	{TypeID: "D.1.1", Name: "vague attribution", Category: "D", Severity: 3, Action: types.ActionAnnotate,
		Patterns: []string{`\b((?:sources?|critics?|experts?|observers?|analysts?|insiders?) (?:say|said|claim(?:ed)?|believe[d]?|warn(?:ed)?|note[d]?|suggest(?:ed)?))\b`}},
	{TypeID: "D.1.2", Name: "anonymous authority", Category: "D", Severity: 3, Action: types.ActionAnnotate,
		Patterns: []string{`\b((?:people|officials|those) familiar with the (?:matter|situation|thinking)|speaking on condition of anonymity)\b`}},
	{TypeID: "D.1.3", Name: "passive attribution", Category: "D", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(it (?:is|was|has been) (?:reported|said|believed|understood|claimed|suggested)|reports? (?:say|said|indicate[d]?))\b`}},
	{TypeID: "D.2.1", Name: "vague quantifier attribution", Category: "D", Severity: 2, Action: types.ActionAnnotate},
	{TypeID: "D.2.2", Name: "unverifiable hearsay", Category: "D", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(rumor(?:s|ed)? (?:has it|suggest)|word is that|it'?s said that)\b`}},
	{TypeID: "D.2.3", Name: "social-media sourcing", Category: "D", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b((?:twitter|x) users? (?:say|react)|the internet is (?:saying|furious)|netizens)\b`}},
	{TypeID: "D.3.1", Name: "false expertise", Category: "D", Severity: 3, Action: types.ActionAnnotate},
	{TypeID: "D.3.2", Name: "credential inflation", Category: "D", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(top (?:expert|scientist|doctor)s?|leading (?:authority|voice)s?|renowned)\b`}},
	{TypeID: "D.3.3", Name: "self-citation laundering", Category: "D", Severity: 3, Action: types.ActionAnnotate},
	{TypeID: "D.4.1", Name: "weasel confirmation", Category: "D", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(could not be independently (?:verified|confirmed)|has not (?:yet )?responded to)\b`}},
	{TypeID: "D.4.2", Name: "expert shopping", Category: "D", Severity: 3, Action: types.ActionAnnotate},

	// ----- E: narrative / motive ----------------------------------------
	{TypeID: "E.1.1", Name: "motive certainty", Category: "E", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "E.1.2", Name: "mind reading", Category: "E", Severity: 4, Action: types.ActionRewrite,
		Patterns: []string{`\b((?:clearly|obviously|undoubtedly) (?:wants?|hopes?|fears?|intends?)|knows? full well)\b`}},
	{TypeID: "E.1.3", Name: "imputed hypocrisy", Category: "E", Severity: 3, Action: types.ActionAnnotate},
	{TypeID: "E.2.1", Name: "tribal priming", Category: "E", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "E.2.2", Name: "guilt by association", Category: "E", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "E.2.3", Name: "out-group homogenizing", Category: "E", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(the (?:left|right|elites?|establishment|mainstream media) (?:wants?|hates?|loves?|always))\b`}},
	{TypeID: "E.3.1", Name: "strawman framing", Category: "E", Severity: 3, Action: types.ActionRewrite},
	{TypeID: "E.3.2", Name: "motive-laden verbs", Category: "E", Severity: 3, Action: types.ActionReplace,
		Patterns: []string{`\b(admit(?:s|ted)|confess(?:es|ed)|refus(?:es|ed) to deny|finally acknowledg(?:es|ed))\b`}},
	{TypeID: "E.3.3", Name: "narrative inevitability", Category: "E", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(the writing is on the wall|it was only a matter of time|inevitabl[ey])\b`}},
	{TypeID: "E.4.1", Name: "persecution narrative", Category: "E", Severity: 3, Action: types.ActionRewrite,
		Patterns: []string{`\b(they don'?t want you to (?:know|see)|what the media won'?t tell you|silenced)\b`}},

	// ----- F: omission / balance ----------------------------------------
	{TypeID: "F.1.1", Name: "false balance", Category: "F", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "F.1.2", Name: "false equivalence", Category: "F", Severity: 4, Action: types.ActionRewrite},
	{TypeID: "F.1.3", Name: "both-sides hedging", Category: "F", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(critics on both sides|opinions differ on whether|the debate rages on)\b`}},
	{TypeID: "F.2.1", Name: "missing context", Category: "F", Severity: 4, Action: types.ActionAnnotate},
	{TypeID: "F.2.2", Name: "cherry-picked statistics", Category: "F", Severity: 4, Action: types.ActionAnnotate},
	{TypeID: "F.2.3", Name: "denominator omission", Category: "F", Severity: 3, Action: types.ActionAnnotate,
		Patterns: []string{`\b(a (?:\d+|[a-z]+)[- ]fold (?:increase|jump|surge)|skyrocket(?:s|ed|ing)|soar(?:s|ed|ing))\b`}},
	{TypeID: "F.3.1", Name: "vague temporal distancing", Category: "F", Severity: 2, Action: types.ActionAnnotate},
	{TypeID: "F.3.2", Name: "stale news repackaging", Category: "F", Severity: 2, Action: types.ActionAnnotate},
	{TypeID: "F.3.3", Name: "trend inflation", Category: "F", Severity: 2, Action: types.ActionAnnotate,
		Patterns: []string{`\b(a growing (?:number|chorus|trend)|increasingly|more and more (?:people|voices))\b`}},
	{TypeID: "F.4.1", Name: "survivorship framing", Category: "F", Severity: 3, Action: types.ActionAnnotate},
	{TypeID: "F.4.2", Name: "anecdote as evidence", Category: "F", Severity: 3, Action: types.ActionAnnotate,
		Patterns: []string{`\b(one (?:man|woman|family)'?s story (?:shows|proves)|proof that)\b`}},
}

// SemanticWhitelist is the fixed set of context-dependent type IDs the
// semantic detector is allowed to emit. IDs outside this list returned by
// the model are dropped.
var SemanticWhitelist = []string{
	"C.3.1", "C.3.2",
	"E.1.1", "E.1.2", "E.2.1", "E.2.2", "E.3.1",
	"F.1.1", "F.2.1",
}
