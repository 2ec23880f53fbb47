package constant

// AsciiArtLogo is the banner printed above the root command help.
const AsciiArtLogo = `
  ___ ___  _  _ _ __ ___  ___  ___ __ _ ___| |_
 / __/ _ \| || | '__/ __|/ _ \/ __/ _' / __| __|
| (_| (_) | || | |  \__ \  __/ (_| (_| \__ \ |_
 \___\___/ \_,_|_|  |___/\___|\___\__,_|___/\__|`
