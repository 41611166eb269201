package tts

// polishSystemPrompt instructs the model pass that runs after the rule
// table. The rules have already done the mechanical work; the model
// catches phrasing the table cannot.
const polishSystemPrompt = `You optimize narration scripts for text-to-speech engines.

Your task:
1. Remove all [bracketed visual cues] - these are for recording, not TTS
2. Keep [PAUSE] markers or convert to "..."
3. Expand acronyms for natural pronunciation:
   - API -> A-P-I
   - CPU -> C-P-U
   - O(n^2) -> O of n squared
4. Fix code references:
   - .py -> dot pie
   - list.append() -> list dot append
5. Convert punctuation for natural speech:
   - Em-dashes -> commas
   - Multiple periods -> single pause

Output clean, natural-sounding text optimized for voice synthesis.`
